package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/hdfs/internal/util"
)

// Bytes per MB
const MB = 1024 * 1024

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultReadAheadChunkSize is the size of each background read-ahead
	// request issued by async files.
	DefaultReadAheadChunkSize = 1 * MB

	// DefaultPoolSize is the number of workers dedicated to blocking native
	// calls. The native client blocks its calling thread for the duration of
	// each network round trip, so this bounds in-flight native I/O, not CPU
	// work.
	DefaultPoolSize = 16

	// DefaultLogLvl is the log verbosity used when none is configured.
	DefaultLogLvl = util.InfoLevel
)

// Config contains runtime configuration values for the HDFS client.
type Config struct {
	LogLvl             util.LogLevel // Log verbosity (Default info)
	ReadAheadChunkSize int           // Size of each async read-ahead request in bytes; 0 disables read-ahead (Default 1MB)
	PoolSize           int           // Worker count for blocking native calls (Default 16)
}

// Validate reports configuration values no component can run with.
func (c *Config) Validate() error {
	if c.ReadAheadChunkSize < 0 {
		return fmt.Errorf("read_ahead_chunk_size must not be negative: %d", c.ReadAheadChunkSize)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("pool_size must be at least 1: %d", c.PoolSize)
	}
	return nil
}

// ConfigOverride uses pointer fields to distinguish between unset and zero
// values when loading partial configuration. See [Config] for field
// descriptions.
type ConfigOverride struct {
	LogLvl             *util.LogLevel `yaml:"log_lvl,omitempty" json:"log_lvl,omitempty"`
	ReadAheadChunkSize *int           `yaml:"read_ahead_chunk_size,omitempty" json:"read_ahead_chunk_size,omitempty"`
	PoolSize           *int           `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:             DefaultLogLvl,
		ReadAheadChunkSize: DefaultReadAheadChunkSize,
		PoolSize:           DefaultPoolSize,
	}
}

// NewConfig creates a Config from defaults plus an optional override.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = *override.LogLvl
	}
	if override.ReadAheadChunkSize != nil {
		c.ReadAheadChunkSize = *override.ReadAheadChunkSize
	}
	if override.PoolSize != nil {
		c.PoolSize = *override.PoolSize
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without
// merging. Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with
// defaults. This is a convenience function that combines NewDefaultConfig,
// LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
