/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"b00m.in/addressiq/cmd/util"
	"b00m.in/addressiq/parquet"
	"b00m.in/addressiq/ui"
)

// headCmd represents the head command
var headCmd = &cobra.Command{
	Use:   "head <key>",
	Short: "Get only the headers of a key in the bucket",
	Long: `Print the object headers, or with --peek read only the last eight bytes and
report the size of the parquet metadata in the footer. For example:

addressiq head -p release/2025-05-21.0/theme=addresses/type=address/part-00000.zstd.parquet`,
	Args: util.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		client, _, err := newS3()
		if err != nil {
			return err
		}

		if peek, _ := cmd.Flags().GetBool("peek"); !peek {
			resp, err := client.HeadObjectWithContext(cmd.Context(), &s3.HeadObjectInput{
				Bucket: aws.String(cfg.Source.Bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return eris.Wrapf(err, "head: %s", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.String())
			return nil
		}

		src := parquet.S3Source{Client: client, Bucket: cfg.Source.Bucket}
		obj, err := src.Open(cmd.Context(), parquet.Part{Name: key})
		if err != nil {
			return err
		}
		defer obj.Close()
		size, err := obj.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		footer, err := parquet.ReadFooter(obj, size)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "size %s, metadata %s, encrypted %t\n",
			ui.ByteCountDecimal(size), ui.ByteCountDecimal(footer.MetadataSize), footer.Encrypted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headCmd)

	headCmd.Flags().BoolP("peek", "p", false, "Peek at footer size")
}
