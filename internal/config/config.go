// =============================================================================
// Tariff Import Pipeline - Configuration Module
// =============================================================================
//
// Loads the single application configuration file (YAML). Only deployment
// concerns live here: store connection, tenant, logging, and commit tuning.
// The alias tables, column dictionaries, footer patterns and the historical
// variant table are compiled-in constants; tariff-file semantics are not
// user-configurable.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	// Database groups the persistent-store settings.
	Database DatabaseConfig `yaml:"database"`

	// TenantID scopes every upsert key; one deployment serves one tenant.
	TenantID string `yaml:"tenant_id"`

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// Import groups the commit-engine tuning.
	Import ImportConfig `yaml:"import"`
}

// DatabaseConfig holds the store connection settings.
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn"`
}

// ImportConfig tunes the commit engine.
type ImportConfig struct {
	// ChunkSize is the payload count per upsert chunk. Default: 50
	ChunkSize int `yaml:"chunk_size"`

	// ChunkPauseMS is the inter-chunk pause in milliseconds. Default: 150
	ChunkPauseMS int `yaml:"chunk_pause_ms"`

	// RetryAttempts is the per-chunk retry count. Default: 0 (no retries)
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryDelayMS is the fixed wait between retry attempts. Default: 500
	RetryDelayMS int `yaml:"retry_delay_ms"`

	// StoreTimeoutSeconds bounds each outbound store call. Default: 30
	StoreTimeoutSeconds int `yaml:"store_timeout_seconds"`
}

// Defaults applied when fields are absent from the file.
const (
	defaultLogLevel            = "info"
	defaultChunkSize           = 50
	defaultChunkPauseMS        = 150
	defaultRetryDelayMS        = 500
	defaultStoreTimeoutSeconds = 30
)

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Import.ChunkSize <= 0 {
		c.Import.ChunkSize = defaultChunkSize
	}
	if c.Import.ChunkPauseMS <= 0 {
		c.Import.ChunkPauseMS = defaultChunkPauseMS
	}
	if c.Import.RetryDelayMS <= 0 {
		c.Import.RetryDelayMS = defaultRetryDelayMS
	}
	if c.Import.StoreTimeoutSeconds <= 0 {
		c.Import.StoreTimeoutSeconds = defaultStoreTimeoutSeconds
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	if c.TenantID == "" {
		return fmt.Errorf("config: tenant_id is required")
	}
	return nil
}

// ChunkPause returns the inter-chunk pause as a duration.
func (c *Config) ChunkPause() time.Duration {
	return time.Duration(c.Import.ChunkPauseMS) * time.Millisecond
}

// RetryDelay returns the retry wait as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Import.RetryDelayMS) * time.Millisecond
}

// StoreTimeout returns the per-call store timeout as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Import.StoreTimeoutSeconds) * time.Second
}
