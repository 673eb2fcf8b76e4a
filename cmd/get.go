/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"b00m.in/addressiq/cmd/util"
	"b00m.in/addressiq/ui"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Download a parquet part, or a byte range of it",
	Long: `Download an object from the configured bucket into the working directory, so
later runs can read it as a local location. For example:

addressiq get release/2025-05-21.0/theme=addresses/type=address/part-00000.zstd.parquet
addressiq get --start 0 --end 1023 <key>`,
	Args: util.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket := cfg.Source.Bucket
		if b, _ := cmd.Flags().GetString("bucket"); b != "" {
			bucket = b
		}
		key := args[0]
		filename := util.ParseFilename(key)

		client, sess, err := newS3()
		if err != nil {
			return err
		}
		head, err := client.HeadObjectWithContext(cmd.Context(), &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return eris.Wrapf(err, "get: head %s", key)
		}
		size := aws.Int64Value(head.ContentLength)

		params := &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}
		start, _ := cmd.Flags().GetInt64("start")
		if end, _ := cmd.Flags().GetInt64("end"); end != -1 {
			params.Range = aws.String(fmt.Sprintf("bytes=%d-%d", start, end))
			filename = util.ModifyFilename(filename, fmt.Sprintf("bytes-%d-%d", start, end))
			size = end - start + 1
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Starting download, size: %s\n", ui.ByteCountDecimal(size))
		temp, err := os.CreateTemp(".", "getObjWithProgress-tmp-")
		if err != nil {
			return eris.Wrap(err, "get: create temp file")
		}
		tempfileName := temp.Name()

		writer := &ui.ProgressWriter{Writer: temp, Size: size}
		downloader := s3manager.NewDownloader(sess)
		if _, err := downloader.DownloadWithContext(cmd.Context(), writer, params); err != nil {
			temp.Close()
			os.Remove(tempfileName)
			return eris.Wrapf(err, "get: download %s", key)
		}
		if err := temp.Close(); err != nil {
			return eris.Wrap(err, "get: close temp file")
		}
		if err := os.Rename(tempfileName, filename); err != nil {
			return eris.Wrap(err, "get: rename temp file")
		}

		zap.L().Info("downloaded object", zap.String("component", "get"),
			zap.String("key", key), zap.Int64("bytes", writer.Written))
		fmt.Fprintf(cmd.OutOrStdout(), "\nFile downloaded! Available at: %s\n", filename)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().String("bucket", "", "bucket to read (default source.bucket)")
	getCmd.Flags().Int64P("start", "s", 0, "start of range")
	getCmd.Flags().Int64P("end", "e", -1, "end of range (-1 for the full object)")
	getCmd.MarkFlagsRequiredTogether("start", "end")
}
