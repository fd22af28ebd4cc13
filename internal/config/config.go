// Package config holds the read-path configuration: where archives live,
// how to reach the write-back cache daemon, and the round-robin format's
// externally supplied defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xtxerr/seriesmux/internal/series"
)

// Config represents the complete read-path configuration.
type Config struct {
	// DataDir is the root directory containing archive files.
	DataDir string `yaml:"data_dir"`

	// Cache configures the write-back cache daemon connection.
	Cache CacheConfig `yaml:"cache"`

	// RoundRobin configures round-robin archive reads.
	RoundRobin RoundRobinConfig `yaml:"round_robin"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`
}

// CacheConfig configures the write-back cache daemon connection.
type CacheConfig struct {
	// Enabled enables cache fusion on fetches.
	Enabled bool `yaml:"enabled"`

	// Address is the daemon's TCP address, e.g. "127.0.0.1:7002".
	Address string `yaml:"address"`

	// TimeoutMs bounds a cache query round trip in milliseconds.
	TimeoutMs int `yaml:"timeout_ms"`
}

// Timeout returns the configured query timeout as a duration.
func (c CacheConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RoundRobinConfig configures round-robin archive reads.
type RoundRobinConfig struct {
	// Consolidation is the consolidation function requested from the
	// backend: average, max, min, or sum.
	Consolidation string `yaml:"consolidation"`

	// FlushDaemon, when set, is the caching daemon flushed before each
	// read so pending updates reach the files first.
	FlushDaemon string `yaml:"flush_daemon"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON selects JSON output instead of text.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "/var/lib/seriesmux",
		Cache: CacheConfig{
			Enabled:   false,
			Address:   "127.0.0.1:7002",
			TimeoutMs: 3000,
		},
		RoundRobin: RoundRobinConfig{
			Consolidation: "average",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads and validates a configuration file. Fields not present in
// the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Cache.Enabled && c.Cache.Address == "" {
		return fmt.Errorf("cache.address required when cache is enabled")
	}
	if c.Cache.TimeoutMs < 0 {
		return fmt.Errorf("cache.timeout_ms must not be negative")
	}
	if c.RoundRobin.Consolidation != "" && !series.ValidConsolidationFunc(c.RoundRobin.Consolidation) {
		return fmt.Errorf("round_robin.consolidation: unknown function %q", c.RoundRobin.Consolidation)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}
