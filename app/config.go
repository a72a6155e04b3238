package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"folio/internal/config"
	"folio/viewport"
)

// Config configures the viewer. Values come from DefaultConfig, then an
// optional YAML file, then FOLIO_* environment variables; main applies
// command-line flags last.
type Config struct {
	// Src is shown first. Models, when set, is the list n cycles through.
	Src    string   `env:"FOLIO_SRC" yaml:"src"`
	Models []string `env:"FOLIO_MODELS" envSeparator:"," yaml:"models"`

	Background      string  `env:"FOLIO_BACKGROUND" yaml:"background"`
	AutoRotate      bool    `env:"FOLIO_AUTO_ROTATE" yaml:"auto_rotate"`
	AutoRotateSpeed float64 `env:"FOLIO_AUTO_ROTATE_SPEED" yaml:"auto_rotate_speed"`
	CameraDistance  float64 `env:"FOLIO_CAMERA_DISTANCE" yaml:"camera_distance"`
	PixelRatio      float64 `env:"FOLIO_PIXEL_RATIO" yaml:"pixel_ratio"`

	// AssetRoot confines relative model paths.
	AssetRoot string `env:"FOLIO_ASSET_ROOT" yaml:"asset_root"`

	Width    int    `env:"FOLIO_WIDTH" yaml:"width"`
	Height   int    `env:"FOLIO_HEIGHT" yaml:"height"`
	Headless bool   `env:"FOLIO_HEADLESS" yaml:"headless"`
	Hz       int    `env:"FOLIO_HZ" yaml:"hz"`
	Ticks    uint64 `env:"FOLIO_TICKS" yaml:"ticks"`

	// Cycle switches to the next model at this interval. 0 disables it.
	Cycle time.Duration `env:"FOLIO_CYCLE" yaml:"cycle"`

	// Snapshot, when set, receives a PNG of the last frame on exit.
	Snapshot string `env:"FOLIO_SNAPSHOT" yaml:"snapshot"`

	LogLevel string `env:"FOLIO_LOG_LEVEL" yaml:"log_level"`
	Dev      bool   `env:"FOLIO_DEV" yaml:"dev"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Src:             "builtin:torus",
		Background:      viewport.DefaultBackground,
		AutoRotate:      true,
		AutoRotateSpeed: viewport.DefaultAutoRotateSpeed,
		PixelRatio:      1,
		AssetRoot:       ".",
		Width:           960,
		Height:          640,
		Hz:              60,
		LogLevel:        "info",
	}
}

// LoadConfig layers the YAML file at path, if any, and the environment over
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := config.LoadYAML(path, &cfg, false); err != nil {
			return cfg, err
		}
	}
	if err := config.ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Playlist returns the models n cycles through.
func (c Config) Playlist() []string {
	if len(c.Models) > 0 {
		return c.Models
	}
	if c.Src != "" && c.Src != "builtin:torus" {
		return []string{c.Src}
	}
	return []string{"builtin:torus", "builtin:cube"}
}

// Options returns the viewport options for src.
func (c Config) Options(src string) viewport.Options {
	return viewport.Options{
		Src:               src,
		Background:        c.Background,
		DisableAutoRotate: !c.AutoRotate,
		AutoRotateSpeed:   c.AutoRotateSpeed,
		CameraDistance:    c.CameraDistance,
		PixelRatio:        c.PixelRatio,
	}
}

// NewLogger builds the process logger: JSON at the given level, or a
// console logger when dev is set.
func NewLogger(level string, dev bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if dev {
		zc = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zc.Level = lvl
	}
	return zc.Build()
}
