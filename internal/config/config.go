// Package config loads geophoto settings from an optional TOML file.
// Command-line flags and SERVICE_* environment variables are applied on top
// by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"

	"github.com/joeblew999/geophoto/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Server  ServerConfig   `toml:"server"`
	CMS     CMSConfig      `toml:"cms"`
	Map     MapConfig      `toml:"map"`
	Logging logging.Config `toml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	WebDir string `toml:"web_dir"`
	Watch  bool   `toml:"watch"` // reload templates on change
}

// CMSConfig holds content API settings.
type CMSConfig struct {
	BaseURL string `toml:"base_url"`
	Path    string `toml:"path"`
	Timeout string `toml:"timeout"`
	MaxBody string `toml:"max_body"`
}

// TimeoutDuration returns the parsed request timeout.
func (c CMSConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MaxBodyBytes returns the parsed response size limit.
func (c CMSConfig) MaxBodyBytes() int64 {
	n, _ := units.FromHumanSize(c.MaxBody)
	return n
}

// MapConfig holds the initial view and rendering options.
type MapConfig struct {
	CenterLat     float64 `toml:"center_lat"`
	CenterLng     float64 `toml:"center_lng"`
	Zoom          int     `toml:"zoom"`
	TileURL       string  `toml:"tile_url"`
	Attribution   string  `toml:"attribution"`
	ClusterOffset int     `toml:"cluster_offset"`
	ClusterMax    int     `toml:"cluster_max_zoom"`
	WrapSlides    *bool   `toml:"wrap_slides"`
}

// Wrap reports whether lightbox navigation wraps around.
func (m MapConfig) Wrap() bool {
	return m.WrapSlides == nil || *m.WrapSlides
}

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8086
	DefaultWebDir      = "web"
	DefaultCMSBaseURL  = "http://localhost:1337"
	DefaultCMSPath     = "/api/images"
	DefaultCMSTimeout  = "15s"
	DefaultCMSMaxBody  = "8MB"
	DefaultZoom        = 2
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
)

// Load reads path when it is non-empty. A missing file is an error; an empty
// path yields a zero Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Server.Host != "" {
		c.Server.Host = overlay.Server.Host
	}
	if overlay.Server.Port != 0 {
		c.Server.Port = overlay.Server.Port
	}
	if overlay.Server.WebDir != "" {
		c.Server.WebDir = overlay.Server.WebDir
	}
	if overlay.Server.Watch {
		c.Server.Watch = true
	}
	if overlay.CMS.BaseURL != "" {
		c.CMS.BaseURL = overlay.CMS.BaseURL
	}
	if overlay.CMS.Path != "" {
		c.CMS.Path = overlay.CMS.Path
	}
	if overlay.CMS.Timeout != "" {
		c.CMS.Timeout = overlay.CMS.Timeout
	}
	if overlay.CMS.MaxBody != "" {
		c.CMS.MaxBody = overlay.CMS.MaxBody
	}
	if overlay.Map.CenterLat != 0 {
		c.Map.CenterLat = overlay.Map.CenterLat
	}
	if overlay.Map.CenterLng != 0 {
		c.Map.CenterLng = overlay.Map.CenterLng
	}
	if overlay.Map.Zoom != 0 {
		c.Map.Zoom = overlay.Map.Zoom
	}
	if overlay.Map.TileURL != "" {
		c.Map.TileURL = overlay.Map.TileURL
	}
	if overlay.Map.Attribution != "" {
		c.Map.Attribution = overlay.Map.Attribution
	}
	if overlay.Map.ClusterOffset != 0 {
		c.Map.ClusterOffset = overlay.Map.ClusterOffset
	}
	if overlay.Map.ClusterMax != 0 {
		c.Map.ClusterMax = overlay.Map.ClusterMax
	}
	if overlay.Map.WrapSlides != nil {
		c.Map.WrapSlides = overlay.Map.WrapSlides
	}
	c.Logging.Merge(&overlay.Logging)
}

// Finalize applies defaults and validates.
func (c *Config) Finalize() error {
	c.loadDefaults()
	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WebDir == "" {
		c.Server.WebDir = DefaultWebDir
	}
	if c.CMS.BaseURL == "" {
		c.CMS.BaseURL = DefaultCMSBaseURL
	}
	if c.CMS.Path == "" {
		c.CMS.Path = DefaultCMSPath
	}
	if c.CMS.Timeout == "" {
		c.CMS.Timeout = DefaultCMSTimeout
	}
	if c.CMS.MaxBody == "" {
		c.CMS.MaxBody = DefaultCMSMaxBody
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = DefaultZoom
	}
	if c.Map.TileURL == "" {
		c.Map.TileURL = DefaultTileURL
	}
	if c.Map.Attribution == "" {
		c.Map.Attribution = DefaultAttribution
	}
	if c.Map.ClusterOffset == 0 {
		c.Map.ClusterOffset = 2
	}
	if c.Map.ClusterMax == 0 {
		c.Map.ClusterMax = 18
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := time.ParseDuration(c.CMS.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("cms.timeout: %w", err))
	}
	if _, err := units.FromHumanSize(c.CMS.MaxBody); err != nil {
		errs = append(errs, fmt.Errorf("cms.max_body: %w", err))
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		errs = append(errs, fmt.Errorf("map.center_lat %v out of range", c.Map.CenterLat))
	}
	if c.Map.CenterLng < -180 || c.Map.CenterLng > 180 {
		errs = append(errs, fmt.Errorf("map.center_lng %v out of range", c.Map.CenterLng))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Errorf("map.zoom %d out of range", c.Map.Zoom))
	}
	return errors.Join(errs...)
}
