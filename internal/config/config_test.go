package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abaveja313/treedex/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "treedex.db", cfg.DBPath)
	assert.Equal(t, types.Unlimited, cfg.Scan.MaxDepth)
	assert.Equal(t, int64(types.Unlimited), cfg.Scan.MaxFileSize)
	assert.Equal(t, 1, cfg.Scan.Concurrency)
	assert.False(t, cfg.Scan.IncludeHidden)
	assert.True(t, cfg.Extract.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.NoError(t, cfg.Validate())
}

// TestLoadFromPath tests that file values override defaults and absent keys
// keep them
func TestLoadFromPath(t *testing.T) {
	content := `
root = "/srv/docs"
db_path = "/var/lib/treedex/index.db"

[scan]
exclude = ["node_modules/**", "*.log"]
max_depth = 4
include_hidden = true
concurrency = 8

[extract]
enabled = false

[log]
level = "debug"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.Root)
	assert.Equal(t, "/var/lib/treedex/index.db", cfg.DBPath)
	assert.Equal(t, []string{"node_modules/**", "*.log"}, cfg.Scan.Exclude)
	assert.Equal(t, 4, cfg.Scan.MaxDepth)
	assert.True(t, cfg.Scan.IncludeHidden)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.False(t, cfg.Extract.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Absent keys keep defaults
	assert.Equal(t, int64(types.Unlimited), cfg.Scan.MaxFileSize)
	assert.Equal(t, "json", cfg.Log.Format)
}

// TestLoadFromPath_Missing tests the error for a nonexistent file
func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

// TestLoadFromPath_Invalid tests the error for malformed TOML
func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("root = [unclosed"), 0o644))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TREEDEX_ROOT", "/tmp/tree")
	t.Setenv("TREEDEX_DB_PATH", "/tmp/index.db")
	t.Setenv("TREEDEX_EXCLUDE", "vendor/**, .git/**")
	t.Setenv("TREEDEX_MAX_DEPTH", "2")
	t.Setenv("TREEDEX_INCLUDE_HIDDEN", "true")
	t.Setenv("TREEDEX_MAX_FILE_SIZE", "1048576")
	t.Setenv("TREEDEX_CONCURRENCY", "4")
	t.Setenv("TREEDEX_EXTRACT", "false")
	t.Setenv("TREEDEX_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tree", cfg.Root)
	assert.Equal(t, "/tmp/index.db", cfg.DBPath)
	assert.Equal(t, []string{"vendor/**", ".git/**"}, cfg.Scan.Exclude)
	assert.Equal(t, 2, cfg.Scan.MaxDepth)
	assert.True(t, cfg.Scan.IncludeHidden)
	assert.Equal(t, int64(1048576), cfg.Scan.MaxFileSize)
	assert.Equal(t, 4, cfg.Scan.Concurrency)
	assert.False(t, cfg.Extract.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

// TestApplyEnvOverrides_Malformed tests that unparseable values keep the
// current setting
func TestApplyEnvOverrides_Malformed(t *testing.T) {
	t.Setenv("TREEDEX_MAX_DEPTH", "deep")
	t.Setenv("TREEDEX_EXTRACT", "sort of")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, types.Unlimited, cfg.Scan.MaxDepth)
	assert.True(t, cfg.Extract.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty root",
			mutate:  func(c *Config) { c.Root = "" },
			wantErr: "root",
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.DBPath = "" },
			wantErr: "db_path",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Scan.Concurrency = -2 },
			wantErr: "scan.concurrency",
		},
		{
			name:    "negative parallelism",
			mutate:  func(c *Config) { c.Load.Parallelism = -1 },
			wantErr: "load.parallelism",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestValidate_CollectsAll tests that every violation is reported at once
func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Root = ""
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
}

func TestScanOptions(t *testing.T) {
	cfg := Default()
	cfg.Scan.Exclude = []string{"tmp/**"}
	cfg.Scan.MaxDepth = 3
	cfg.Scan.IncludeHidden = true
	cfg.Scan.MaxFileSize = 512
	cfg.Scan.Concurrency = 2

	opts := cfg.ScanOptions()
	assert.Equal(t, types.ScanOptions{
		Exclude:       []string{"tmp/**"},
		MaxDepth:      3,
		IncludeHidden: true,
		MaxFileSize:   512,
		Concurrency:   2,
	}, opts)
}
