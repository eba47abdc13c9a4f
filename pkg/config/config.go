// Package config handles loading and saving weave configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/wv/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ViewConfig holds view preference settings.
type ViewConfig struct {
	Layout  string  `yaml:"layout,omitempty"`   // force, hierarchical, circular, radial, cluster, grid
	Width   int     `yaml:"width,omitempty"`    // Viewport width in graph units
	Height  int     `yaml:"height,omitempty"`   // Viewport height in graph units
	MinZoom float64 `yaml:"min_zoom,omitempty"` // Lower zoom clamp
	MaxZoom float64 `yaml:"max_zoom,omitempty"` // Upper zoom clamp
}

// FilterConfig controls which records make it into the graph.
type FilterConfig struct {
	MinConfidence float64 `yaml:"min_confidence,omitempty"` // Drop edges below this normalized confidence
	MaxDepth      int     `yaml:"max_depth,omitempty"`      // Prune nodes beyond this hop count (0 = no limit)
}

// Config is the top-level configuration for wv.
type Config struct {
	View   ViewConfig   `yaml:"view,omitempty"`
	Filter FilterConfig `yaml:"filter,omitempty"`
	Watch  bool         `yaml:"watch,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		View: ViewConfig{
			Layout:  "force",
			Width:   1280,
			Height:  800,
			MinZoom: 0.25,
			MaxZoom: 4,
		},
	}
}

// ConfigDir returns the XDG config directory for wv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
