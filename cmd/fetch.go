/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"b00m.in/addressiq/bbox"
	"b00m.in/addressiq/cmd/util"
	"b00m.in/addressiq/config"
	"b00m.in/addressiq/fetch"
	"b00m.in/addressiq/pipeline"
	"b00m.in/addressiq/ui"
)

var fetchBox bbox.Box

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [location]",
	Short: "Print the addresses inside a bounding box",
	Long: `Reads the address rows overlapping the bounding box, decodes their points and
admin levels and prints one formatted address per unique location. The location
defaults to the configured release on S3; a local file or directory works too:

addressiq fetch --bbox -122.17,37.43,-122.15,37.45 --limit 0
addressiq fetch --format yaml ./part-00000.zstd.parquet`,
	Args: util.MaximumArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		box, err := cfg.Fetch.Box()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("bbox") {
			box = fetchBox
		}
		columns := cfg.Fetch.Columns
		if cmd.Flags().Changed("columns") {
			columns, _ = cmd.Flags().GetStringSlice("columns")
		}
		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		limit := cfg.Output.Limit
		if cmd.Flags().Changed("limit") {
			limit, _ = cmd.Flags().GetInt("limit")
		}

		opener, err := newOpener()
		if err != nil {
			return err
		}
		p := pipeline.New(fetch.New(opener), pipeline.Options{
			Workers:        cfg.Pipeline.Workers,
			GeometryColumn: cfg.Fetch.GeometryColumn,
			Mem:            memory.DefaultAllocator,
		})
		req := fetch.Request{Location: location(args), Box: box, Columns: columns}
		addrs, err := p.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		shown := ui.Head(addrs, limit)
		if err := ui.Addresses(cmd.OutOrStdout(), format, shown); err != nil {
			return err
		}
		if format == config.FormatTable {
			pterm.Info.Printfln("%d of %d addresses in %s", len(shown), len(addrs), box)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	util.BoxVar(fetchCmd.Flags(), &fetchBox, "bbox", "xmin,ymin,xmax,ymax in degrees (default fetch.bbox)")
	fetchCmd.Flags().StringSlice("columns", nil, "read only these columns (default all)")
	fetchCmd.Flags().StringP("format", "f", "", "table, json or yaml (default output.format)")
	fetchCmd.Flags().IntP("limit", "n", 0, "print at most n addresses, 0 for all (default output.limit)")
}
