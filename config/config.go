package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"b00m.in/addressiq/bbox"
)

// Config holds the full application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates an Overture release on S3.
type SourceConfig struct {
	Bucket   string `yaml:"bucket" mapstructure:"bucket"`
	Region   string `yaml:"region" mapstructure:"region"`
	Release  string `yaml:"release" mapstructure:"release"`
	Theme    string `yaml:"theme" mapstructure:"theme"`
	Type     string `yaml:"type" mapstructure:"type"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// FetchConfig configures what is read from the dataset.
type FetchConfig struct {
	// BBox is "xmin,ymin,xmax,ymax" or a list of four numbers.
	BBox           any      `yaml:"bbox" mapstructure:"bbox"`
	Columns        []string `yaml:"columns" mapstructure:"columns"`
	BatchSize      int64    `yaml:"batch_size" mapstructure:"batch_size"`
	BBoxColumn     string   `yaml:"bbox_column" mapstructure:"bbox_column"`
	GeometryColumn string   `yaml:"geometry_column" mapstructure:"geometry_column"`
}

// PipelineConfig configures the transform stages.
type PipelineConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures how addresses are printed.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Limit  int    `yaml:"limit" mapstructure:"limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Location is the S3 prefix of the configured theme and type.
func (c *Config) Location() string {
	s := c.Source
	return fmt.Sprintf("s3://%s/release/%s/theme=%s/type=%s/", s.Bucket, s.Release, s.Theme, s.Type)
}

// Box parses the configured bounding box.
func (c FetchConfig) Box() (bbox.Box, error) {
	if s, ok := c.BBox.(string); ok {
		return bbox.Parse(s)
	}
	vals, err := cast.ToSliceE(c.BBox)
	if err != nil {
		return bbox.Box{}, eris.Wrap(err, "config: fetch.bbox")
	}
	if len(vals) != 4 {
		return bbox.Box{}, eris.Errorf("config: fetch.bbox needs 4 numbers, got %d", len(vals))
	}
	var fs [4]float64
	for i, v := range vals {
		if fs[i], err = cast.ToFloat64E(v); err != nil {
			return bbox.Box{}, eris.Wrapf(err, "config: fetch.bbox[%d]", i)
		}
	}
	return bbox.Box{XMin: fs[0], YMin: fs[1], XMax: fs[2], YMax: fs[3]}, nil
}

// Validate checks the values Load cannot check by type alone.
func (c *Config) Validate() error {
	if _, err := c.Fetch.Box(); err != nil {
		return err
	}
	if c.Fetch.BatchSize <= 0 {
		return eris.Errorf("config: fetch.batch_size must be positive, got %d", c.Fetch.BatchSize)
	}
	if c.Pipeline.Workers <= 0 {
		return eris.Errorf("config: pipeline.workers must be positive, got %d", c.Pipeline.Workers)
	}
	switch c.Output.Format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return eris.Errorf("config: unknown output.format %q", c.Output.Format)
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADDRESSIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.bucket", "overturemaps-us-west-2")
	v.SetDefault("source.region", "us-west-2")
	v.SetDefault("source.release", "2025-05-21.0")
	v.SetDefault("source.theme", "addresses")
	v.SetDefault("source.type", "address")
	v.SetDefault("source.endpoint", "")
	v.SetDefault("fetch.bbox", "-71.068,42.353,-71.058,42.363")
	v.SetDefault("fetch.columns", []string{})
	v.SetDefault("fetch.batch_size", 64*1024)
	v.SetDefault("fetch.bbox_column", "bbox")
	v.SetDefault("fetch.geometry_column", "geometry")
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("output.format", FormatTable)
	v.SetDefault("output.limit", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
