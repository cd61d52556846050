// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/shardstore/lib/compress"
	"github.com/bureau-foundation/shardstore/lib/shard"
)

// EnvVar names the environment variable Load reads the config path
// from.
const EnvVar = "SHARDSTORE_CONFIG"

// Config is the shardstore configuration.
type Config struct {
	Store StoreConfig `yaml:"store"`
	Write WriteConfig `yaml:"write"`
	Read  ReadConfig  `yaml:"read"`
	Log   LogConfig   `yaml:"log"`
}

// StoreConfig locates datasets.
type StoreConfig struct {
	// Root is the directory that relative dataset paths resolve
	// against. Absolute dataset paths ignore it.
	Root string `yaml:"root"`
}

// WriteConfig holds the defaults for datasets created without an
// explicit choice.
type WriteConfig struct {
	// Compression is a codec name from compress.Supported.
	Compression string `yaml:"compression"`

	// Encoding is a record encoding name: raw or cbor.
	Encoding string `yaml:"encoding"`

	// ExamplesPerShard is the shard rotation threshold.
	ExamplesPerShard int `yaml:"examples_per_shard"`
}

// ReadConfig holds iteration and validation defaults.
type ReadConfig struct {
	ShuffleBuffer int    `yaml:"shuffle_buffer"`
	Prefetch      int    `yaml:"prefetch"`
	Seed          uint64 `yaml:"seed"`

	// ValidateConcurrency bounds parallel shard checks; zero means one
	// per CPU.
	ValidateConcurrency int `yaml:"validate_concurrency"`
}

// LogConfig configures command logging.
type LogConfig struct {
	// Level is a slog level name.
	Level string `yaml:"level"`

	// Format is auto (text on a terminal, JSON otherwise), text, or
	// json.
	Format string `yaml:"format"`
}

// Default returns the default configuration. LoadFile starts from it,
// so a config file only needs the values it changes.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Store: StoreConfig{
			Root: filepath.Join(homeDir, ".cache", "shardstore"),
		},
		Write: WriteConfig{
			Compression:      compress.Zstd.String(),
			Encoding:         shard.EncodingRaw.String(),
			ExamplesPerShard: 256,
		},
		Read: ReadConfig{
			Prefetch: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the file named by SHARDSTORE_CONFIG.
// It fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your shardstore.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, over the
// defaults, and expands variables in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.Root = expandVars(c.Store.Root, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, reporting all of
// them at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Store.Root == "" {
		errs = append(errs, errors.New("store.root is required"))
	}
	if _, err := c.Write.CompressionKind(); err != nil {
		errs = append(errs, fmt.Errorf("write.compression: %w", err))
	}
	if _, err := c.Write.RecordEncoding(); err != nil {
		errs = append(errs, fmt.Errorf("write.encoding: %w", err))
	}
	if c.Write.ExamplesPerShard <= 0 {
		errs = append(errs, fmt.Errorf("write.examples_per_shard must be positive, got %d", c.Write.ExamplesPerShard))
	}
	if c.Read.ShuffleBuffer < 0 {
		errs = append(errs, fmt.Errorf("read.shuffle_buffer must not be negative, got %d", c.Read.ShuffleBuffer))
	}
	if c.Read.Prefetch < 0 {
		errs = append(errs, fmt.Errorf("read.prefetch must not be negative, got %d", c.Read.Prefetch))
	}
	if c.Read.ValidateConcurrency < 0 {
		errs = append(errs, fmt.Errorf("read.validate_concurrency must not be negative, got %d", c.Read.ValidateConcurrency))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: auto, text, json; got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// CompressionKind parses Compression.
func (w WriteConfig) CompressionKind() (compress.Kind, error) {
	return compress.ParseKind(w.Compression)
}

// RecordEncoding parses Encoding.
func (w WriteConfig) RecordEncoding() (shard.Encoding, error) {
	return shard.ParseEncoding(w.Encoding)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, err
	}
	return level, nil
}

// DatasetPath resolves a dataset argument: absolute paths are used
// as-is, anything else is relative to Store.Root.
func (c *Config) DatasetPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Store.Root, name)
}

// EnsurePaths creates the store root if it does not exist.
func (c *Config) EnsurePaths() error {
	if c.Store.Root == "" {
		return nil
	}
	if err := os.MkdirAll(c.Store.Root, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Store.Root, err)
	}
	return nil
}
