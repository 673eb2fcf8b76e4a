/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"b00m.in/addressiq/config"
	"b00m.in/addressiq/parquet"
)

var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "addressiq",
	Short: "Extract formatted addresses from Overture GeoParquet releases",
	Long: `Reads the Overture addresses theme, straight from the public S3 bucket or from
local parquet files, keeps the rows inside a bounding box and prints them as
deduplicated one-line addresses. For example:

addressiq fetch --bbox -71.068,42.353,-71.058,42.363
addressiq fetch --release 2025-05-21.0 --format json ./addresses/`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if release, _ := cmd.Flags().GetString("release"); release != "" {
			c.Source.Release = release
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			c.Log.Level = level
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("release", "", "Overture release to read, e.g. 2025-05-21.0")
	rootCmd.PersistentFlags().String("log-level", "", "override log.level")
}

// newS3 opens an anonymous client for the configured region.
func newS3() (*s3.S3, *session.Session, error) {
	sess, err := parquet.NewSession(parquet.S3Config{Region: cfg.Source.Region, Endpoint: cfg.Source.Endpoint})
	if err != nil {
		return nil, nil, err
	}
	return s3.New(sess), sess, nil
}

// newOpener opens datasets with the configured read options.
func newOpener() (parquet.Opener, error) {
	client, _, err := newS3()
	if err != nil {
		return parquet.Opener{}, err
	}
	return parquet.Opener{
		S3: client,
		Options: []parquet.Option{
			parquet.WithBatchSize(cfg.Fetch.BatchSize),
			parquet.WithBBoxColumn(cfg.Fetch.BBoxColumn),
		},
	}, nil
}

// location is the first argument, or the configured release prefix.
func location(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Location()
}
