// Package config provides configuration loading and management for rawrecon.
// It handles loading configuration from YAML or TOML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"rawrecon/pkg/batch"
	"rawrecon/pkg/kspace"
	"rawrecon/pkg/reconstruction"
)

// Config represents the application configuration
type Config struct {
	// Input parameters
	Input struct {
		// Pattern selects raw files by name; matching is case-sensitive
		Pattern string `yaml:"pattern" toml:"pattern"`
	} `yaml:"input" toml:"input"`

	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many files are reconstructed at once
		NumWorkers int `yaml:"numWorkers" toml:"numWorkers"`
	} `yaml:"processing" toml:"processing"`

	// Reconstruction parameters
	Reconstruction struct {
		// Experiment, Echo, Slice and SecondaryView select the plane to reconstruct
		Experiment    int `yaml:"experiment" toml:"experiment"`
		Echo          int `yaml:"echo" toml:"echo"`
		Slice         int `yaml:"slice" toml:"slice"`
		SecondaryView int `yaml:"secondaryView" toml:"secondaryView"`

		// AllPlanes reconstructs every plane and ignores the selection above
		AllPlanes bool `yaml:"allPlanes" toml:"allPlanes"`
	} `yaml:"reconstruction" toml:"reconstruction"`

	// Output parameters
	Output struct {
		// Dir is where exported images are written; empty disables export
		Dir string `yaml:"dir" toml:"dir"`

		// Format is the export image format: png, jpg or tiff
		Format string `yaml:"format" toml:"format"`

		// LogKSpace exports k-space as log(1+|k|) instead of |k|
		LogKSpace bool `yaml:"logKSpace" toml:"logKSpace"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose" toml:"verbose"`
	} `yaml:"output" toml:"output"`

	// Watch parameters
	Watch struct {
		// SettleMillis is how long a file must be quiet before it is processed
		SettleMillis int `yaml:"settleMillis" toml:"settleMillis"`
	} `yaml:"watch" toml:"watch"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Pattern = batch.DefaultPattern

	cfg.Processing.NumWorkers = runtime.NumCPU() // Use all available cores by default

	cfg.Output.Format = "png"
	cfg.Output.LogKSpace = true
	cfg.Output.Verbose = false

	cfg.Watch.SettleMillis = 500

	return cfg
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if _, err := filepath.Match(c.Input.Pattern, ""); err != nil || c.Input.Pattern == "" {
		return fmt.Errorf("invalid input pattern %q", c.Input.Pattern)
	}
	if c.Processing.NumWorkers < 0 {
		return fmt.Errorf("numWorkers must be non-negative, got %d", c.Processing.NumWorkers)
	}
	r := c.Reconstruction
	if r.Experiment < 0 || r.Echo < 0 || r.Slice < 0 || r.SecondaryView < 0 {
		return fmt.Errorf("plane indices must be non-negative")
	}
	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg", "tif", "tiff":
	default:
		return fmt.Errorf("unsupported output format %q", c.Output.Format)
	}
	if c.Watch.SettleMillis < 0 {
		return fmt.Errorf("settleMillis must be non-negative, got %d", c.Watch.SettleMillis)
	}
	return nil
}

// BatchParams converts the configuration into batch processing parameters
func (c *Config) BatchParams() *batch.Params {
	return &batch.Params{
		Pattern:    c.Input.Pattern,
		NumWorkers: c.Processing.NumWorkers,
		Reconstruction: reconstruction.Params{
			Plane: kspace.Plane{
				Experiment:    c.Reconstruction.Experiment,
				Echo:          c.Reconstruction.Echo,
				Slice:         c.Reconstruction.Slice,
				SecondaryView: c.Reconstruction.SecondaryView,
			},
			AllPlanes: c.Reconstruction.AllPlanes,
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension.
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML or TOML file, chosen by extension
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	var err error
	if isTOML(configPath) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
