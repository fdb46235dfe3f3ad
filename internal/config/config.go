// Package config provides configuration management for topoview.
//
// The config file describes the deployment: where to listen, where the
// database lives, which dataset files to load and watch, and which networks
// to scan. Topologies and layout history live in the database.
//
// Config file locations (priority order):
//  1. $TOPOVIEW_CONFIG
//  2. ./topoview.yaml
//  3. $XDG_CONFIG_HOME/topoview/config.yaml
//  4. ~/.config/topoview/config.yaml
//  5. /etc/topoview/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"topoview/internal/domain"
)

const (
	defaultAddr              = ":3000"
	defaultDBPath            = "./topoview.db"
	defaultDiscoveryID       = "nmap"
	defaultDiscoveryInterval = 5 * time.Minute
	defaultDiscoveryTimeout  = 5 * time.Minute
	defaultDrawerWidth       = 72
	defaultDrawerHeight      = 22
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}
	if c.Datasets.Debounce == 0 {
		c.Datasets.Debounce = Duration(500 * time.Millisecond)
	}
	if c.Discovery.TopologyID == "" {
		c.Discovery.TopologyID = defaultDiscoveryID
	}
	if c.Discovery.Interval == 0 {
		c.Discovery.Interval = Duration(defaultDiscoveryInterval)
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = Duration(defaultDiscoveryTimeout)
	}
	if c.Drawer.Width == 0 {
		c.Drawer.Width = defaultDrawerWidth
	}
	if c.Drawer.Height == 0 {
		c.Drawer.Height = defaultDrawerHeight
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	opts := c.Layout.Options()
	if opts.Iterations < 0 {
		errs = append(errs, fmt.Errorf("layout.iterations: %d is negative", opts.Iterations))
	}
	if opts.Iterations > domain.MaxIterations {
		errs = append(errs, fmt.Errorf("layout.iterations: %d exceeds %d", opts.Iterations, domain.MaxIterations))
	}
	if opts.Repulsion < 0 || opts.Repulsion > domain.MaxRepulsion {
		errs = append(errs, fmt.Errorf("layout.repulsion: %g is outside [0, %g]", opts.Repulsion, float64(domain.MaxRepulsion)))
	}
	if opts.Attraction < 0 || opts.Attraction > domain.MaxAttraction {
		errs = append(errs, fmt.Errorf("layout.attraction: %g is outside [0, %g]", opts.Attraction, float64(domain.MaxAttraction)))
	}
	if opts.Damping < 0 || opts.Damping > 1 {
		errs = append(errs, fmt.Errorf("layout.damping: %g is outside [0, 1]", opts.Damping))
	}
	if opts.Radius <= 0 || opts.Radius > domain.MaxRadius {
		errs = append(errs, fmt.Errorf("layout.radius: %g is outside (0, %g]", opts.Radius, float64(domain.MaxRadius)))
	}

	if c.Datasets.Watch && len(c.Datasets.Files) == 0 {
		errs = append(errs, errors.New("datasets.watch: no files to watch"))
	}
	if c.Discovery.Enabled && len(c.Discovery.Targets) == 0 && !c.Discovery.Local {
		errs = append(errs, errors.New("discovery.targets: required when discovery is enabled without local"))
	}
	if c.Discovery.Interval.Duration() < time.Second {
		errs = append(errs, fmt.Errorf("discovery.interval: %s is below minimum 1s", c.Discovery.Interval.Duration()))
	}

	return errors.Join(errs...)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	opts := c.Layout.Options()
	summary := fmt.Sprintf("Listen: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("Layout: iterations=%d repulsion=%g attraction=%g damping=%g radius=%g\n",
		opts.Iterations, opts.Repulsion, opts.Attraction, opts.Damping, opts.Radius)
	summary += fmt.Sprintf("Datasets: %d (watch=%v)", len(c.Datasets.Files), c.Datasets.Watch)
	if c.Discovery.Enabled {
		summary += fmt.Sprintf("\nDiscovery: %v every %s", c.Discovery.Targets, c.Discovery.Interval.Duration())
	}
	return summary
}
