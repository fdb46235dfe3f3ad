package config

import (
	"time"

	"topoview/internal/layout"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Layout    LayoutConfig    `yaml:"layout"`
	Datasets  DatasetConfig   `yaml:"datasets"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Drawer    DrawerConfig    `yaml:"drawer"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LayoutConfig overrides the engine defaults. Unset fields keep the default,
// so an explicit zero (iterations: 0) is honored.
type LayoutConfig struct {
	Iterations *int     `yaml:"iterations,omitempty"`
	Repulsion  *float64 `yaml:"repulsion,omitempty"`
	Attraction *float64 `yaml:"attraction,omitempty"`
	Damping    *float64 `yaml:"damping,omitempty"`
	Radius     *float64 `yaml:"radius,omitempty"`
}

// DatasetConfig lists topology files imported at startup and re-imported on change
type DatasetConfig struct {
	Files    []string `yaml:"files,omitempty"`
	Watch    bool     `yaml:"watch"`
	Debounce Duration `yaml:"debounce,omitempty"`
}

// DiscoveryConfig controls the nmap discovery source
type DiscoveryConfig struct {
	Enabled          bool     `yaml:"enabled"`
	TopologyID       string   `yaml:"topology_id,omitempty"`
	Targets          []string `yaml:"targets,omitempty"`
	Local            bool     `yaml:"local"`
	Interval         Duration `yaml:"interval,omitempty"`
	Timeout          Duration `yaml:"timeout,omitempty"`
	Ports            string   `yaml:"ports,omitempty"`
	ServiceDetection bool     `yaml:"service_detection"`
}

// DrawerConfig sizes the terminal test drawer canvas
type DrawerConfig struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// Options merges the overrides onto the engine defaults
func (l LayoutConfig) Options() layout.Options {
	opts := layout.DefaultOptions()
	if l.Iterations != nil {
		opts.Iterations = *l.Iterations
	}
	if l.Repulsion != nil {
		opts.Repulsion = *l.Repulsion
	}
	if l.Attraction != nil {
		opts.Attraction = *l.Attraction
	}
	if l.Damping != nil {
		opts.Damping = *l.Damping
	}
	if l.Radius != nil {
		opts.Radius = *l.Radius
	}
	return opts
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
