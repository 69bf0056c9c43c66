// Package config provides TOML configuration loading for treedex.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// TOML file, and TREEDEX_* environment variable overrides applied last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/abaveja313/treedex/pkg/types"
)

// Config represents the complete treedex configuration.
type Config struct {
	// Root is the directory tree to ingest.
	Root string `toml:"root"`
	// DBPath is the SQLite database location.
	DBPath string `toml:"db_path"`

	Scan    ScanConfig    `toml:"scan"`
	Extract ExtractConfig `toml:"extract"`
	Load    LoadConfig    `toml:"load"`
	Log     LogConfig     `toml:"log"`
}

// ScanConfig controls directory traversal.
type ScanConfig struct {
	// Exclude lists glob patterns relative to the root.
	Exclude []string `toml:"exclude"`
	// MaxDepth bounds recursion; negative means unlimited.
	MaxDepth int `toml:"max_depth"`
	// IncludeHidden surfaces dot-prefixed entries.
	IncludeHidden bool `toml:"include_hidden"`
	// MaxFileSize excludes files above this many bytes; negative means unlimited.
	MaxFileSize int64 `toml:"max_file_size"`
	// Concurrency is the number of scan workers.
	Concurrency int `toml:"concurrency"`
}

// ExtractConfig controls document extraction from archives.
type ExtractConfig struct {
	// Enabled toggles the extraction phase. When false, compressed files
	// are treated like any other binary.
	Enabled bool `toml:"enabled"`
}

// LoadConfig controls the load phase.
type LoadConfig struct {
	// Parallelism caps concurrent file reads; 0 picks a CPU-based default.
	Parallelism int `toml:"parallelism"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// Path redirects log output from stderr to a file.
	Path string `toml:"path"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	scan := types.DefaultScanOptions()
	return &Config{
		Root:   ".",
		DBPath: "treedex.db",
		Scan: ScanConfig{
			MaxDepth:    scan.MaxDepth,
			MaxFileSize: scan.MaxFileSize,
			Concurrency: scan.Concurrency,
		},
		Extract: ExtractConfig{Enabled: true},
		Load:    LoadConfig{Parallelism: 0},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load returns the default configuration with environment overrides applied.
func Load() (*Config, error) {
	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a TOML file. Keys absent from the
// file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - TREEDEX_ROOT: overrides root
//   - TREEDEX_DB_PATH: overrides db_path
//   - TREEDEX_EXCLUDE: comma-separated list, overrides scan.exclude
//   - TREEDEX_MAX_DEPTH: overrides scan.max_depth
//   - TREEDEX_INCLUDE_HIDDEN: overrides scan.include_hidden
//   - TREEDEX_MAX_FILE_SIZE: overrides scan.max_file_size
//   - TREEDEX_CONCURRENCY: overrides scan.concurrency
//   - TREEDEX_EXTRACT: overrides extract.enabled
//   - TREEDEX_PARALLELISM: overrides load.parallelism
//   - TREEDEX_LOG_LEVEL: overrides log.level
//   - TREEDEX_LOG_FORMAT: overrides log.format
func (c *Config) ApplyEnvOverrides() {
	c.Root = envOr("TREEDEX_ROOT", c.Root)
	c.DBPath = envOr("TREEDEX_DB_PATH", c.DBPath)

	if v := os.Getenv("TREEDEX_EXCLUDE"); v != "" {
		c.Scan.Exclude = splitList(v)
	}
	c.Scan.MaxDepth = envInt("TREEDEX_MAX_DEPTH", c.Scan.MaxDepth)
	c.Scan.IncludeHidden = envBool("TREEDEX_INCLUDE_HIDDEN", c.Scan.IncludeHidden)
	c.Scan.MaxFileSize = envInt64("TREEDEX_MAX_FILE_SIZE", c.Scan.MaxFileSize)
	c.Scan.Concurrency = envInt("TREEDEX_CONCURRENCY", c.Scan.Concurrency)

	c.Extract.Enabled = envBool("TREEDEX_EXTRACT", c.Extract.Enabled)
	c.Load.Parallelism = envInt("TREEDEX_PARALLELISM", c.Load.Parallelism)

	c.Log.Level = envOr("TREEDEX_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("TREEDEX_LOG_FORMAT", c.Log.Format)
}

// ScanOptions converts the scan section into walker options.
func (c *Config) ScanOptions() types.ScanOptions {
	return types.ScanOptions{
		Exclude:       c.Scan.Exclude,
		MaxDepth:      c.Scan.MaxDepth,
		IncludeHidden: c.Scan.IncludeHidden,
		MaxFileSize:   c.Scan.MaxFileSize,
		Concurrency:   c.Scan.Concurrency,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Root == "" {
		errs = append(errs, ValidationError{
			Field:   "root",
			Message: "must not be empty",
		})
	}
	if c.DBPath == "" {
		errs = append(errs, ValidationError{
			Field:   "db_path",
			Message: "must not be empty",
		})
	}

	if c.Scan.Concurrency < 0 {
		errs = append(errs, ValidationError{
			Field:   "scan.concurrency",
			Message: fmt.Sprintf("must be non-negative, got %d", c.Scan.Concurrency),
		})
	}
	if c.Load.Parallelism < 0 {
		errs = append(errs, ValidationError{
			Field:   "load.parallelism",
			Message: fmt.Sprintf("must be non-negative, got %d", c.Load.Parallelism),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, console", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}
