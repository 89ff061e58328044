// Package config loads pipeline run configuration from TOML files.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// StageConfig names one stage and carries its stage-specific options.
type StageConfig struct {
	// Name must match a registered stage builder.
	Name string `toml:"name"`

	// Options is passed verbatim to the stage builder.
	Options map[string]any `toml:"options"`
}

// CollectorConfig selects and configures a document source.
type CollectorConfig struct {
	// Name must match a registered collector builder.
	Name string `toml:"name"`

	// Options is passed verbatim to the collector builder.
	Options map[string]any `toml:"options"`
}

// StorageConfig selects where processed records are persisted.
type StorageConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `toml:"backend"`

	// Path is the database file for the sqlite backend.
	Path string `toml:"path"`
}

// Config is a full pipeline run description.
type Config struct {
	// Stages is the ordered stage chain.
	Stages []StageConfig `toml:"stages"`

	// Collector names the document source for the run.
	Collector CollectorConfig `toml:"collector"`

	// Storage selects the record store backend.
	Storage StorageConfig `toml:"storage"`

	// BatchSize is the pipeline sub-batch size.
	BatchSize int `toml:"batch_size"`

	// Workers is the goroutine count for document stages.
	Workers int `toml:"workers"`

	// Limit caps the number of documents collected; zero means all.
	Limit int `toml:"limit"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for structural problems a run would trip
// over later.
func (c *Config) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("config: at least one stage is required")
	}
	for i, st := range c.Stages {
		if st.Name == "" {
			return fmt.Errorf("config: stage %d has no name", i)
		}
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("config: batch_size must not be negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative")
	}
	switch c.Storage.Backend {
	case "", "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("config: sqlite storage requires a path")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
