// Package config provides configuration loading and management for the
// tiling pipeline. It handles loading configuration from YAML files
// and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Data locates the dataset; all paths are explicit, never ambient.
	Data struct {
		// ImageDir holds the whole-image files
		ImageDir string `yaml:"imageDir"`

		// ManifestPath is the id,encoding CSV manifest
		ManifestPath string `yaml:"manifestPath"`

		// ComputeHulls derives convex-hull masks at load time
		ComputeHulls bool `yaml:"computeHulls"`
	} `yaml:"data"`

	// Folds parameters
	Folds struct {
		// NumFolds is the cross-validation fold count
		NumFolds int `yaml:"numFolds"`
	} `yaml:"folds"`

	// Tiling parameters shared by training and inference
	Tiling struct {
		// TileSize is the model input size in pixels
		TileSize int `yaml:"tileSize"`

		// OverlapFactor controls sliding-window overlap; step = tile / overlap
		OverlapFactor float64 `yaml:"overlapFactor"`

		// ReduceFactor downscales full-resolution crops before the model
		ReduceFactor int `yaml:"reduceFactor"`
	} `yaml:"tiling"`

	// Sampling parameters for training draws
	Sampling struct {
		// Mode is one of random, centered, convhull, visible
		Mode string `yaml:"mode"`

		// AcceptanceThreshold blends on-target and random sampling
		AcceptanceThreshold float64 `yaml:"acceptanceThreshold"`

		// CropScale oversizes training crops relative to tileSize
		CropScale float64 `yaml:"cropScale"`

		// MaxAttempts bounds the rejection loop
		MaxAttempts int `yaml:"maxAttempts"`

		// ExternalProb is the probability of drawing from the external pool
		ExternalProb float64 `yaml:"externalProb"`

		// PseudoProb is the probability of drawing from the pseudo pool
		PseudoProb float64 `yaml:"pseudoProb"`

		// IterPerEpoch is the number of tiles constituting one epoch
		IterPerEpoch int `yaml:"iterPerEpoch"`

		// Seed initializes the sampler random state
		Seed uint64 `yaml:"seed"`
	} `yaml:"sampling"`

	// Kernel parameters for tile border weighting
	Kernel struct {
		// Sigma controls the edge falloff sharpness
		Sigma float64 `yaml:"sigma"`

		// Alpha saturates the interior plateau
		Alpha float64 `yaml:"alpha"`

		// Eps keeps the rescale well defined
		Eps float64 `yaml:"eps"`
	} `yaml:"kernel"`

	// Inference parameters
	Inference struct {
		// BatchSize is the number of tiles per forward pass
		BatchSize int `yaml:"batchSize"`

		// TTA averages predictions over flipped tile variants
		TTA bool `yaml:"tta"`

		// CropWorkers bounds the tile cropping goroutines
		CropWorkers int `yaml:"cropWorkers"`
	} `yaml:"inference"`

	// Output parameters
	Output struct {
		// MapDir receives exported probability maps
		MapDir string `yaml:"mapDir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Data.ImageDir = "input/train"
	cfg.Data.ManifestPath = "input/train.csv"
	cfg.Data.ComputeHulls = true

	cfg.Folds.NumFolds = 5

	cfg.Tiling.TileSize = 256
	cfg.Tiling.OverlapFactor = 1.5
	cfg.Tiling.ReduceFactor = 4

	cfg.Sampling.Mode = "convhull"
	cfg.Sampling.AcceptanceThreshold = 0.9
	cfg.Sampling.CropScale = 1.5
	cfg.Sampling.MaxAttempts = 100
	cfg.Sampling.IterPerEpoch = 1000

	cfg.Kernel.Sigma = 1.0
	cfg.Kernel.Alpha = 1.0
	cfg.Kernel.Eps = 1e-6

	cfg.Inference.BatchSize = 32
	cfg.Inference.CropWorkers = runtime.NumCPU()

	cfg.Output.MapDir = "maps"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
