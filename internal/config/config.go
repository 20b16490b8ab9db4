// Package config loads annotate-mcp settings from defaults, an optional
// annotate.json or annotate.yaml file and ANNOTATE_* environment variables,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/export"
	"github.com/ironsheep/annotate-mcp/internal/hittest"
	"github.com/ironsheep/annotate-mcp/internal/tool"
)

// FileName is the config file name without extension.
const FileName = "annotate"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ANNOTATE"

// Canvas holds interaction thresholds. Radii are in screen pixels.
type Canvas struct {
	HandleRadius         float64 `mapstructure:"handleRadius"`
	RotationHandleOffset float64 `mapstructure:"rotationHandleOffset"`
	SnapRadius           float64 `mapstructure:"snapRadius"`
	MinBoxSize           float64 `mapstructure:"minBoxSize"`
	MinOBBSize           float64 `mapstructure:"minOBBSize"`
	MinPolygonPoints     int     `mapstructure:"minPolygonPoints"`
}

// Contour holds mask tracing settings.
type Contour struct {
	MaxPoints int     `mapstructure:"maxPoints"`
	Tolerance float64 `mapstructure:"tolerance"`
}

// Export holds dataset export settings.
type Export struct {
	Workers    int     `mapstructure:"workers"`
	TrainRatio float64 `mapstructure:"trainRatio"`
	CopyImages bool    `mapstructure:"copyImages"`
}

// Store selects the project store. SQLitePath wins over Dir when set.
type Store struct {
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlitePath"`
}

// Config is the full settings tree.
type Config struct {
	LogLevel  string  `mapstructure:"logLevel"`
	LogFormat string  `mapstructure:"logFormat"`
	Canvas    Canvas  `mapstructure:"canvas"`
	Contour   Contour `mapstructure:"contour"`
	Export    Export  `mapstructure:"export"`
	Store     Store   `mapstructure:"store"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")

	v.SetDefault("canvas.handleRadius", hittest.DefaultHandleRadius)
	v.SetDefault("canvas.rotationHandleOffset", hittest.DefaultRotationOffset)
	v.SetDefault("canvas.snapRadius", 10)
	v.SetDefault("canvas.minBoxSize", 5)
	v.SetDefault("canvas.minOBBSize", 10)
	v.SetDefault("canvas.minPolygonPoints", 3)

	v.SetDefault("contour.maxPoints", contour.DefaultMaxPoints)
	v.SetDefault("contour.tolerance", contour.DefaultTolerance)

	v.SetDefault("export.workers", runtime.NumCPU())
	v.SetDefault("export.trainRatio", export.DefaultTrainRatio)
	v.SetDefault("export.copyImages", true)

	v.SetDefault("store.dir", "projects")
	v.SetDefault("store.sqlitePath", "")
}

// Load reads the configuration. dir is searched for annotate.json or
// annotate.yaml; a missing file is not an error. An empty dir skips the file.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("logLevel", EnvPrefix+"_LOG_LEVEL"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("logFormat", EnvPrefix+"_LOG_FORMAT"); err != nil {
		return nil, err
	}

	if dir != "" {
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Canvas.HandleRadius <= 0:
		return fmt.Errorf("canvas.handleRadius must be positive, got %v", c.Canvas.HandleRadius)
	case c.Canvas.MinPolygonPoints < 3:
		return fmt.Errorf("canvas.minPolygonPoints must be at least 3, got %d", c.Canvas.MinPolygonPoints)
	case c.Contour.MaxPoints <= 0:
		return fmt.Errorf("contour.maxPoints must be positive, got %d", c.Contour.MaxPoints)
	case c.Contour.Tolerance < 0:
		return fmt.Errorf("contour.tolerance must not be negative, got %v", c.Contour.Tolerance)
	case c.Export.TrainRatio < 0 || c.Export.TrainRatio > 1:
		return fmt.Errorf("export.trainRatio must be within [0, 1], got %v", c.Export.TrainRatio)
	}
	return nil
}

// HitOptions returns the hit-test thresholds.
func (c *Config) HitOptions() hittest.Options {
	return hittest.Options{
		HandleRadius:   c.Canvas.HandleRadius,
		RotationOffset: c.Canvas.RotationHandleOffset,
	}
}

// ToolOptions returns the interaction thresholds.
func (c *Config) ToolOptions() tool.Options {
	return tool.Options{
		Hit:              c.HitOptions(),
		SnapRadius:       c.Canvas.SnapRadius,
		MinBoxSize:       c.Canvas.MinBoxSize,
		MinOBBSize:       c.Canvas.MinOBBSize,
		MinPolygonPoints: c.Canvas.MinPolygonPoints,
	}
}

// ContourOptions returns the mask tracing settings.
func (c *Config) ContourOptions() contour.Options {
	return contour.Options{MaxPoints: c.Contour.MaxPoints, Tolerance: c.Contour.Tolerance}
}

// ExportOptions returns the export settings.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Workers:    c.Export.Workers,
		TrainRatio: c.Export.TrainRatio,
		CopyImages: c.Export.CopyImages,
		Contour:    c.ContourOptions(),
	}
}
