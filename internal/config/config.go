// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTileURL     = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultUserAgent   = "polyviz/1.0"
	DefaultAttribution = "© OpenStreetMap contributors"
)

// Config represents the root configuration file structure.
type Config struct {
	Basemap Basemap `yaml:"basemap"`
	Style   Style   `yaml:"style"`
}

// Basemap configures the tile layer drawn under the polygon.
type Basemap struct {
	Enabled     *bool         `yaml:"enabled,omitempty"`
	URL         string        `yaml:"url,omitempty"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	Attribution string        `yaml:"attribution,omitempty"`
	CacheDir    string        `yaml:"cache_dir,omitempty"` // empty disables the disk cache
	MaxZoom     int           `yaml:"max_zoom,omitempty"`
	MaxTiles    int           `yaml:"max_tiles,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty"`
	CacheSize   int           `yaml:"cache_size,omitempty"` // tiles kept in memory
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// Style is the polygon look. Colors are hex strings.
type Style struct {
	Fill  string  `yaml:"fill,omitempty"`
	Edge  string  `yaml:"edge,omitempty"`
	Alpha float64 `yaml:"alpha,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// Unset values fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// BasemapEnabled reports whether tiles should be fetched.
func (c *Config) BasemapEnabled() bool {
	return c.Basemap.Enabled == nil || *c.Basemap.Enabled
}

// SetBasemap forces the basemap on or off.
func (c *Config) SetBasemap(on bool) {
	c.Basemap.Enabled = &on
}

func (c *Config) applyDefaults() {
	b := &c.Basemap
	if b.URL == "" {
		b.URL = DefaultTileURL
	}
	if b.UserAgent == "" {
		b.UserAgent = DefaultUserAgent
	}
	if b.Attribution == "" && b.URL == DefaultTileURL {
		b.Attribution = DefaultAttribution
	}
	if b.MaxZoom <= 0 {
		b.MaxZoom = 19
	}
	if b.MaxTiles <= 0 {
		b.MaxTiles = 36
	}
	if b.Concurrency <= 0 {
		b.Concurrency = 4
	}
	if b.CacheSize <= 0 {
		b.CacheSize = 256
	}
	if b.Timeout <= 0 {
		b.Timeout = 30 * time.Second
	}

	s := &c.Style
	if s.Fill == "" {
		s.Fill = "#ADD8E6"
	}
	if s.Edge == "" {
		s.Edge = "#000000"
	}
	if s.Alpha <= 0 {
		s.Alpha = 0.6
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	u := c.Basemap.URL
	if !strings.Contains(u, "{z}") || !strings.Contains(u, "{x}") ||
		!(strings.Contains(u, "{y}") || strings.Contains(u, "{tms_y}")) {
		errs = append(errs, fmt.Errorf("basemap.url must contain {z}, {x} and {y} or {tms_y}: %q", u))
	}
	if c.Basemap.MaxZoom > 22 {
		errs = append(errs, fmt.Errorf("basemap.max_zoom out of range: %d", c.Basemap.MaxZoom))
	}
	if c.Style.Alpha > 1 {
		errs = append(errs, fmt.Errorf("style.alpha must be within (0, 1]: %g", c.Style.Alpha))
	}
	if _, err := colorful.Hex(c.Style.Fill); err != nil {
		errs = append(errs, fmt.Errorf("style.fill: %w", err))
	}
	if _, err := colorful.Hex(c.Style.Edge); err != nil {
		errs = append(errs, fmt.Errorf("style.edge: %w", err))
	}
	return errors.Join(errs...)
}
