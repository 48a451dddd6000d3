// Package config handles configuration loading and validation for qcdash.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	Tracker    TrackerConfig    `yaml:"tracker"`
	Status     StatusConfig     `yaml:"status"`
	Milestones MilestonesConfig `yaml:"milestones"`
	Server     ServerConfig     `yaml:"server"`
	UI         UIConfig         `yaml:"ui"`
}

// TrackerConfig points at the QC backend.
type TrackerConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StatusConfig tunes status batching and caching.
type StatusConfig struct {
	// BatchWindow is how long the batcher waits for more requests before
	// dispatching. Zero dispatches as soon as the scheduler runs.
	BatchWindow time.Duration `yaml:"batch_window"`
	// CacheTTL bounds how long a fetched status is reused. Zero keeps
	// statuses until invalidated.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// MilestonesConfig controls which milestones and items are summarized.
type MilestonesConfig struct {
	Names        []string        `yaml:"names"`
	Scope        milestone.Scope `yaml:"scope"`
	Include      []string        `yaml:"include"` // doublestar patterns over tracked file paths
	FetchWorkers int             `yaml:"fetch_workers"`
}

// Inclusion returns the item predicate described by scope and include.
func (m MilestonesConfig) Inclusion() milestone.Inclusion {
	return milestone.And(m.Scope.Inclusion(), milestone.MatchFiles(m.Include...))
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tracker: TrackerConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		Status: StatusConfig{
			CacheTTL: 2 * time.Minute,
		},
		Milestones: MilestonesConfig{
			Scope:        milestone.ScopeOpen,
			FetchWorkers: 4,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:7420",
			RequestTimeout: 2 * time.Minute,
		},
		UI: UIConfig{
			Theme: styles.DefaultTheme,
		},
	}
}

// Load reads and validates configuration from the given path. A missing
// file yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Read parses configuration and applies defaults without validating.
func Read(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Tracker.BaseURL == "" {
		c.Tracker.BaseURL = defaults.Tracker.BaseURL
	}
	if c.Tracker.Timeout == 0 {
		c.Tracker.Timeout = defaults.Tracker.Timeout
	}
	if c.Milestones.Scope == "" {
		c.Milestones.Scope = defaults.Milestones.Scope
	}
	if c.Milestones.FetchWorkers == 0 {
		c.Milestones.FetchWorkers = defaults.Milestones.FetchWorkers
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}
