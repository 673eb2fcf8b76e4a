/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"b00m.in/addressiq/cmd/util"
	"b00m.in/addressiq/parquet"
	"b00m.in/addressiq/ui"
)

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls [location]",
	Short: "List the parquet parts of a release",
	Long: `List the parquet parts stored under an S3 prefix, or the configured release when
no location is given. For example:

addressiq ls
addressiq ls --release 2025-04-23.0
addressiq ls s3://overturemaps-us-west-2/release/2025-05-21.0/theme=addresses/`,
	Args: util.MaximumArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc := location(args)
		if !strings.HasPrefix(loc, "s3://") {
			loc = "s3://" + loc
		}
		bucket, prefix, err := parquet.SplitS3(loc)
		if err != nil {
			return err
		}
		client, _, err := newS3()
		if err != nil {
			return err
		}

		src := parquet.S3Source{Client: client, Bucket: bucket, Prefix: prefix}
		parts, err := src.List(cmd.Context())
		if err != nil {
			return err
		}

		data := pterm.TableData{{"key", "size"}}
		var total int64
		for _, p := range parts {
			data = append(data, []string{p.Name, ui.ByteCountDecimal(p.Size)})
			total += p.Size
		}
		if err := ui.Table(cmd.OutOrStdout(), data); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Found", len(parts), "parts,", ui.ByteCountDecimal(total), "in", src)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
