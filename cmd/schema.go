/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"b00m.in/addressiq/cmd/util"
	"b00m.in/addressiq/parquet"
	"b00m.in/addressiq/schema"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema [location]",
	Short: "Show the declared and normalized schema of a dataset",
	Long: `Reads only the parquet footers and prints each top-level column with its type,
before and after map columns are rewritten to lists of key/value structs. For example:

addressiq schema
addressiq schema --footer --kv ./part-00000.zstd.parquet`,
	Args: util.MaximumArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opener, err := newOpener()
		if err != nil {
			return err
		}
		ds, err := opener.OpenDataset(cmd.Context(), location(args))
		if err != nil {
			return err
		}
		defer ds.Close()

		declared, err := schema.FromArrowSchema(ds.Schema())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printFields(out, "declared", declared)
		printFields(out, "normalized", schema.Normalize(declared).(schema.Struct))
		fmt.Fprintln(out, "Map columns rewritten:", schema.CountMaps(declared))

		if footer, _ := cmd.Flags().GetBool("footer"); footer {
			kv, _ := cmd.Flags().GetBool("kv")
			return ds.Describe(out, parquet.DescribeOptions{KeyValueMetadata: kv, RowGroups: true})
		}
		return nil
	},
}

func printFields(w io.Writer, title string, s schema.Struct) {
	fmt.Fprintf(w, "--- %s ---\n", title)
	for _, f := range s.Fields {
		fmt.Fprintf(w, "%s: %s\n", f.Name, f.Type)
	}
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().Bool("footer", false, "also print footer metadata and bbox column statistics")
	schemaCmd.Flags().Bool("kv", false, "with --footer, print key value file metadata")
}
