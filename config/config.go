// Package config loads hapviz settings from a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TFMV/hapviz/ingest"
	"github.com/TFMV/hapviz/physics"
	"github.com/TFMV/hapviz/render"
)

// Config holds hapviz configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// LayoutConfig controls node sizes and the simulation.
type LayoutConfig struct {
	Algorithm       string  `toml:"algorithm"` // "cluster" or "noise"
	Width           float64 `toml:"width"`
	Height          float64 `toml:"height"`
	SourceSize      float64 `toml:"source_size"`
	TargetSize      float64 `toml:"target_size"`
	Padding         float64 `toml:"padding"`
	ClusterStrength float64 `toml:"cluster_strength"`
	CollideAlpha    float64 `toml:"collide_alpha"`
	MaxRadius       float64 `toml:"max_radius"` // 0: largest node radius
	Alpha           float64 `toml:"alpha"`
	AlphaDecay      float64 `toml:"alpha_decay"`
	AlphaMin        float64 `toml:"alpha_min"`
	Friction        float64 `toml:"friction"`
	Gravity         float64 `toml:"gravity"`
	Charge          bool    `toml:"charge"`
	Noise           float64 `toml:"noise"`
	Seed            int64   `toml:"seed"`
	MaxIterations   int     `toml:"max_iterations"`
}

// RenderConfig controls static output.
type RenderConfig struct {
	Formats    []string `toml:"formats"`
	OutDir     string   `toml:"out_dir"`
	Theme      string   `toml:"theme"` // "light" or "dark"
	ShowLabels bool     `toml:"show_labels"`
	Timestamp  bool     `toml:"timestamp"`
	Timeout    Duration `toml:"timeout"`
}

// ServerConfig controls the preview server.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	DataDir     string   `toml:"data_dir"`
	CORSOrigins []string `toml:"cors_origins"`
	TickDelay   Duration `toml:"tick_delay"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	JSON  bool   `toml:"json"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Algorithm:       "cluster",
			Width:           960,
			Height:          500,
			SourceSize:      5,
			TargetSize:      10,
			Padding:         6,
			ClusterStrength: 10,
			CollideAlpha:    .5,
			Alpha:           .1,
			AlphaDecay:      .99,
			AlphaMin:        .005,
			Friction:        .9,
			Seed:            1,
			MaxIterations:   1000,
		},
		Render: RenderConfig{
			Formats: []string{"svg"},
			OutDir:  ".",
			Theme:   "light",
			Timeout: Duration{30 * time.Second},
		},
		Server: ServerConfig{
			Addr:        ":8080",
			DataDir:     "data",
			CORSOrigins: []string{"*"},
			TickDelay:   Duration{16 * time.Millisecond},
		},
		Log: LogConfig{Level: "info"},
	}
}

// ConfigDir returns the hapviz config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "hapviz")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path (the default path when empty). A
// missing file yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

// Save writes the config to path (the default path when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HAPVIZ_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("HAPVIZ_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("HAPVIZ_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// Validate rejects settings the layout cannot run with.
func (c *Config) Validate() error {
	l := c.Layout
	switch {
	case l.Width <= 0 || l.Height <= 0:
		return fmt.Errorf("layout size must be positive, got %gx%g", l.Width, l.Height)
	case l.AlphaDecay <= 0 || l.AlphaDecay >= 1:
		return fmt.Errorf("layout.alpha_decay must be in (0,1), got %g", l.AlphaDecay)
	case l.SourceSize < 0 || l.TargetSize < 0:
		return errors.New("node sizes must not be negative")
	}
	for _, f := range c.Render.Formats {
		if _, err := render.GetRenderer(f); err != nil {
			return err
		}
	}
	return nil
}

// Params converts the layout section to simulation constants.
func (l LayoutConfig) Params() physics.Params {
	p := physics.DefaultParams()
	p.Width = l.Width
	p.Height = l.Height
	p.ClusterStrength = l.ClusterStrength
	p.CollideAlpha = l.CollideAlpha
	p.Padding = l.Padding
	p.MaxRadius = l.MaxRadius
	p.AlphaStart = l.Alpha
	p.AlphaDecay = l.AlphaDecay
	p.AlphaMin = l.AlphaMin
	p.Friction = l.Friction
	p.Gravity = l.Gravity
	p.Charge = l.Charge
	p.ChargeDistance = math.Inf(1)
	p.Seed = l.Seed
	p.MaxIterations = l.MaxIterations
	return p
}

// OutputOptions builds render options for format from the config.
func (c *Config) OutputOptions(format string) *render.OutputOptions {
	o := render.NewDefaultOptions(format)
	o.Width = c.Layout.Width
	o.Height = c.Layout.Height
	o.Layout = c.Layout.Algorithm
	o.NoiseIntensity = c.Layout.Noise
	o.Params = c.Layout.Params()
	o.ShowLabels = c.Render.ShowLabels
	o.Timestamp = c.Render.Timestamp
	o.Timeout = c.Render.Timeout.Duration
	p := c.Palette()
	o.Background = p.Background
	o.Fallback = p.Fallback
	o.TextColor = p.Text
	return o
}

// Palette returns the palette of the configured theme.
func (c *Config) Palette() *ingest.Palette {
	if c.Render.Theme == "dark" {
		return ingest.DarkPalette()
	}
	return ingest.DefaultPalette()
}

// Format returns the ingest format for the configured theme and a file
// extension such as "csv".
func (c *Config) Format(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if c.Render.Theme == "dark" && (ext == "csv" || ext == "json") {
		return "dark-" + ext
	}
	return ext
}
