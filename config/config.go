// Package config provides configuration loading and management for Semcite.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Semcite configuration
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Server   ServerConfig   `yaml:"server"`
	NATS     NATSConfig     `yaml:"nats"`
	Cite     CiteConfig     `yaml:"cite"`
}

// RegistryConfig configures the namespace registry dataset
type RegistryConfig struct {
	// URL is the registry export location (default: the Bioregistry export)
	URL string `yaml:"url"`
	// SnapshotPath is the on-disk mirror of the dataset, used as an
	// offline fallback (default: the user cache directory)
	SnapshotPath string `yaml:"snapshot_path"`
	// Timeout is the maximum time to wait for the dataset fetch
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is sent with registry and metadata requests
	UserAgent string `yaml:"user_agent"`
	// CompilePatterns precompiles accession patterns at load time
	CompilePatterns bool `yaml:"compile_patterns"`
}

// ServerConfig configures the HTTP resolver service
type ServerConfig struct {
	// Addr is the listen address (default: :8585)
	Addr string `yaml:"addr"`
	// WatchSnapshot rebuilds the resolver when the registry snapshot
	// file is replaced on disk
	WatchSnapshot bool `yaml:"watch_snapshot"`
}

// NATSConfig configures the optional resolution-event publisher
type NATSConfig struct {
	// URL is the NATS server URL (empty = events disabled)
	URL string `yaml:"url"`
	// Embedded starts an in-process NATS server instead of connecting
	// to URL
	Embedded bool `yaml:"embedded"`
	// SubjectPrefix is the subject prefix for resolution events
	SubjectPrefix string `yaml:"subject_prefix"`
}

// CiteConfig configures the citation pipeline
type CiteConfig struct {
	// Bibliographies lists CSL-JSON files with manually curated
	// reference metadata; doublestar glob patterns are supported
	Bibliographies []string `yaml:"bibliographies"`
	// Timeout is the maximum time to wait for metadata fetches
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			URL:             "https://github.com/biopragmatics/bioregistry/raw/main/exports/registry/registry.json",
			SnapshotPath:    "", // Resolved to the user cache directory at load
			Timeout:         30 * time.Second,
			UserAgent:       "semcite (https://github.com/c360studio/semcite)",
			CompilePatterns: true,
		},
		Server: ServerConfig{
			Addr:          ":8585",
			WatchSnapshot: false,
		},
		NATS: NATSConfig{
			URL:           "",
			SubjectPrefix: "cite.resolve",
		},
		Cite: CiteConfig{
			Bibliographies: nil,
			Timeout:        30 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Registry.URL == "" {
		return fmt.Errorf("registry.url is required")
	}
	if c.Registry.Timeout <= 0 {
		return fmt.Errorf("registry.timeout must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if (c.NATS.URL != "" || c.NATS.Embedded) && c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required when events are enabled")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. Environment
// variables referenced as ${VAR} or $VAR are expanded before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	config := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
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

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Registry
	if other.Registry.URL != "" {
		c.Registry.URL = other.Registry.URL
	}
	if other.Registry.SnapshotPath != "" {
		c.Registry.SnapshotPath = other.Registry.SnapshotPath
	}
	if other.Registry.Timeout != 0 {
		c.Registry.Timeout = other.Registry.Timeout
	}
	if other.Registry.UserAgent != "" {
		c.Registry.UserAgent = other.Registry.UserAgent
	}
	if other.Registry.CompilePatterns {
		c.Registry.CompilePatterns = true
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.WatchSnapshot {
		c.Server.WatchSnapshot = true
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Embedded {
		c.NATS.Embedded = true
	}
	if other.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = other.NATS.SubjectPrefix
	}

	// Cite
	if len(other.Cite.Bibliographies) > 0 {
		c.Cite.Bibliographies = other.Cite.Bibliographies
	}
	if other.Cite.Timeout != 0 {
		c.Cite.Timeout = other.Cite.Timeout
	}
}
