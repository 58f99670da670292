// Package config provides configuration management for rezprod.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the rezprod configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Resolver ResolverConfig `yaml:"resolver"`
}

// StoreConfig holds the production/staging store locations.
type StoreConfig struct {
	ProductionDatabase string `yaml:"production_database"` // Production store path
	StagingDatabase    string `yaml:"staging_database"`    // Staging store path (empty = derived)
	HistoryFolder      string `yaml:"history_folder"`      // Backup folder (empty = derived)
	KeepHistory        bool   `yaml:"keep_history"`        // Back up production before deploy
}

// ResolverConfig holds the external dependency resolver settings.
type ResolverConfig struct {
	Command     string `yaml:"command"`      // Resolver command line; package names are appended (empty = accept all)
	TimeoutSecs int    `yaml:"timeout_secs"` // Max wait for one resolver invocation
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			ProductionDatabase: filepath.Join(homeDir(), "packages", "prod.sqlite3"),
			StagingDatabase:    "", // derived from production path
			HistoryFolder:      "", // derived from production path
			KeepHistory:        true,
		},
		Resolver: ResolverConfig{
			Command:     "",
			TimeoutSecs: 60,
		},
	}
}

// StagingPath returns the staging store location. When not configured it is
// the production file prefixed with "staging." in the same directory.
func (c *StoreConfig) StagingPath() string {
	if c.StagingDatabase != "" {
		return c.StagingDatabase
	}
	dir, base := filepath.Split(c.ProductionDatabase)
	return filepath.Join(dir, "staging."+base)
}

// HistoryDir returns the deploy backup directory. When not configured it is
// the "history" sibling of the production store.
func (c *StoreConfig) HistoryDir() string {
	if c.HistoryFolder != "" {
		return c.HistoryFolder
	}
	return filepath.Join(filepath.Dir(c.ProductionDatabase), "history")
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnvOverrides applies REZPROD_* environment variable overrides.
// Environment variables take precedence over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("REZPROD_PRODUCTION_DATABASE"); v != "" {
		c.Store.ProductionDatabase = v
	}
	if v := os.Getenv("REZPROD_STAGING_DATABASE"); v != "" {
		c.Store.StagingDatabase = v
	}
	if v := os.Getenv("REZPROD_HISTORY_FOLDER"); v != "" {
		c.Store.HistoryFolder = v
	}
	if v := os.Getenv("REZPROD_KEEP_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Store.KeepHistory = b
		}
	}
	if v := os.Getenv("REZPROD_RESOLVER_COMMAND"); v != "" {
		c.Resolver.Command = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Store.ProductionDatabase == "" {
		return fmt.Errorf("store.production_database must not be empty")
	}
	if c.Resolver.TimeoutSecs < 0 {
		return fmt.Errorf("resolver.timeout_secs must not be negative")
	}
	return nil
}
