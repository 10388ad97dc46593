// Package config loads the atlas command configuration from YAML with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Config is the atlas command configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	View   ViewConfig   `yaml:"view"`
	Styles StylesConfig `yaml:"styles"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	ReadTimeout int    `yaml:"readTimeout"` // seconds
}

type StoreConfig struct {
	// Path of the sqlite scene database. Empty disables persistence.
	Path string `yaml:"path"`
}

type ViewConfig struct {
	MinLon float64 `yaml:"minLon"`
	MinLat float64 `yaml:"minLat"`
	MaxLon float64 `yaml:"maxLon"`
	MaxLat float64 `yaml:"maxLat"`

	// Fit zooms to the loaded entities instead of the bounds above.
	Fit bool `yaml:"fit"`
}

// Bounds returns the configured initial bounds.
func (v ViewConfig) Bounds() geo.Bounds {
	return geo.NewBounds(v.MinLon, v.MinLat, v.MaxLon, v.MaxLat)
}

type StylesConfig struct {
	Default  render.Style `yaml:"default"`
	Selected render.Style `yaml:"selected"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", ReadTimeout: 10},
		View:   ViewConfig{MinLon: -180, MinLat: -85, MaxLon: 180, MaxLat: 85, Fit: true},
		Styles: StylesConfig{Default: render.DefaultStyle, Selected: render.DefaultSelectedStyle},
	}
}

// Load reads the configuration at path over the defaults and applies
// environment overrides. A missing file is not an error. Unknown keys are.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := decode(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.Server.Addr = getEnv("ATLAS_ADDR", cfg.Server.Addr)
	cfg.Store.Path = getEnv("ATLAS_DB", cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the configuration for values no command can run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("config: server.readTimeout is negative")
	}
	b := c.View.Bounds()
	if b.Width() <= 0 || b.Height() <= 0 {
		return fmt.Errorf("config: view bounds %v,%v %v,%v are empty", c.View.MinLon, c.View.MinLat, c.View.MaxLon, c.View.MaxLat)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}
