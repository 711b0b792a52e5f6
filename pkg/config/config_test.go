package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rawrecon/pkg/kspace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "*.raw", cfg.Input.Pattern)
	assert.Positive(t, cfg.Processing.NumWorkers)
	assert.Equal(t, "png", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())

	p := cfg.BatchParams()
	assert.Equal(t, "*.raw", p.Pattern)
	assert.Equal(t, kspace.Plane{}, p.Reconstruction.Plane)
	assert.False(t, p.Reconstruction.AllPlanes)
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Input.Pattern, cfg.Input.Pattern)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawrecon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  pattern: "*.RAW"
processing:
  numWorkers: 3
reconstruction:
  echo: 1
  slice: 2
output:
  dir: out
  format: tiff
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "*.RAW", cfg.Input.Pattern)
	assert.Equal(t, 3, cfg.Processing.NumWorkers)
	assert.Equal(t, "tiff", cfg.Output.Format)
	// Unset keys keep their defaults.
	assert.True(t, cfg.Output.LogKSpace)
	assert.Equal(t, 500, cfg.Watch.SettleMillis)

	p := cfg.BatchParams()
	assert.Equal(t, kspace.Plane{Echo: 1, Slice: 2}, p.Reconstruction.Plane)
	assert.Equal(t, 3, p.NumWorkers)
}

func TestLoadConfig_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawrecon.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[reconstruction]
allPlanes = true

[watch]
settleMillis = 50
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Reconstruction.AllPlanes)
	assert.Equal(t, 50, cfg.Watch.SettleMillis)
	assert.Equal(t, "*.raw", cfg.Input.Pattern)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("input: [unclosed"), 0o644))
	_, err := LoadConfig(bad)
	assert.ErrorContains(t, err, "error parsing config file")

	format := filepath.Join(dir, "format.yaml")
	require.NoError(t, os.WriteFile(format, []byte("output:\n  format: bmp\n"), 0o644))
	_, err = LoadConfig(format)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty pattern", func(c *Config) { c.Input.Pattern = "" }},
		{"bad pattern", func(c *Config) { c.Input.Pattern = "[" }},
		{"negative workers", func(c *Config) { c.Processing.NumWorkers = -1 }},
		{"negative plane", func(c *Config) { c.Reconstruction.Slice = -1 }},
		{"format", func(c *Config) { c.Output.Format = "gif" }},
		{"settle", func(c *Config) { c.Watch.SettleMillis = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"cfg/rawrecon.yaml", "cfg/rawrecon.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.Processing.NumWorkers = 7
			cfg.Reconstruction.SecondaryView = 1
			cfg.Output.Format = "jpg"
			require.NoError(t, SaveConfig(cfg, path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawrecon.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}
