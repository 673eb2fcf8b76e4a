/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"b00m.in/addressiq/bbox"
	"b00m.in/addressiq/cmd/util"
	"b00m.in/addressiq/ui"
)

var filterBox bbox.Box

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter [location]",
	Short: "Check which parts and row groups may hold rows in a bounding box",
	Long: `Apply the bounding box to the GeoParquet extent of each part and to the bbox
column statistics of each row group, without reading any data page. For example:

addressiq filter --bbox -71.068,42.353,-71.058,42.363
addressiq filter --bbox -3.71,40.41,-3.69,40.43 part-0fd324452.parquet`,
	Args: util.MaximumArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		box, err := cfg.Fetch.Box()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("bbox") {
			box = filterBox
		}

		opener, err := newOpener()
		if err != nil {
			return err
		}
		ds, err := opener.OpenDataset(cmd.Context(), location(args))
		if err != nil {
			return err
		}
		defer ds.Close()

		pred := bbox.Overlaps(box)
		data := pterm.TableData{{"part", "extent", "row groups", "rows", "status"}}
		var kept int
		for _, p := range ds.Plan(box, pred) {
			extent := "-"
			if p.HasBound {
				extent = bbox.FromBound(p.Bound).String()
			}
			status := "read"
			if p.Skipped || len(p.Kept) == 0 {
				status = "skip"
			} else {
				kept++
			}
			data = append(data, []string{
				util.ParseFilename(p.Name),
				extent,
				fmt.Sprintf("%d/%d", len(p.Kept), p.RowGroups),
				strconv.FormatInt(p.KeptRows, 10) + "/" + strconv.FormatInt(p.Rows, 10),
				status,
			})
		}
		if err := ui.Table(cmd.OutOrStdout(), data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%d of %d parts to read\n", pred, kept, len(data)-1)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)

	util.BoxVar(filterCmd.Flags(), &filterBox, "bbox", "xmin,ymin,xmax,ymax in degrees (default fetch.bbox)")
}
