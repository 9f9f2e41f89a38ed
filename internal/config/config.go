// Package config holds the run configuration of the detector.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// VEHICLE_DETECT_* environment variables, then command-line flags (applied by
// cmd/vehicle-detect). Validate is called once all layers are applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/vehicle-detect/internal/features"
)

// ErrInvalid marks a configuration that cannot be run.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "VEHICLE_DETECT_"

// WindowSize is the sliding window size in pixels.
type WindowSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the full run configuration.
type Config struct {
	DatasetDir string `yaml:"dataset_dir"`
	ImagePath  string `yaml:"image_path"`
	OutputPath string `yaml:"output_path"`

	WindowSize WindowSize `yaml:"window_size"`
	StepSize   int        `yaml:"step_size"`

	TestFraction float64 `yaml:"test_fraction"`
	Seed         int64   `yaml:"seed"`

	// TargetLabel must name one of the dataset's label directories.
	TargetLabel string `yaml:"target_label"`

	Extractor string          `yaml:"extractor"`
	Features  features.Config `yaml:"features"`

	Workers      int    `yaml:"workers"`
	BoxColor     string `yaml:"box_color"`
	BoxThickness int    `yaml:"box_thickness"`
	JPEGQuality  int    `yaml:"jpeg_quality"`

	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration. TargetLabel has no default.
func Default() *Config {
	return &Config{
		DatasetDir:   "dataset",
		OutputPath:   "output_detection.jpg",
		WindowSize:   WindowSize{Width: 224, Height: 224},
		StepSize:     32,
		TestFraction: 0.2,
		Seed:         42,
		Extractor:    "gradient",
		Workers:      DefaultWorkers(),
		BoxColor:     "#00FF00",
		BoxThickness: 2,
		JPEGQuality:  95,
	}
}

// DefaultWorkers returns the number of logical CPUs, or 1 if it cannot be determined.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return cfg, nil
}

// Write stores cfg as YAML at path.
func Write(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from VEHICLE_DETECT_* environment variables.
//
//	VEHICLE_DETECT_DATASET_DIR     dataset root
//	VEHICLE_DETECT_IMAGE           target image
//	VEHICLE_DETECT_OUTPUT          annotated output path
//	VEHICLE_DETECT_TARGET_LABEL    positive label
//	VEHICLE_DETECT_EXTRACTOR       extractor name
//	VEHICLE_DETECT_EMBEDDING_URL   remote embedding service
//	VEHICLE_DETECT_WORKERS         scan concurrency
//	VEHICLE_DETECT_LOG_LEVEL       "debug" enables debug logging
func (c *Config) ApplyEnv() error {
	setString(&c.DatasetDir, "DATASET_DIR")
	setString(&c.ImagePath, "IMAGE")
	setString(&c.OutputPath, "OUTPUT")
	setString(&c.TargetLabel, "TARGET_LABEL")
	setString(&c.Extractor, "EXTRACTOR")
	setString(&c.Features.EmbeddingURL, "EMBEDDING_URL")

	if v := os.Getenv(EnvPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sWORKERS=%q: %v", ErrInvalid, EnvPrefix, v, err)
		}
		c.Workers = n
	}
	if os.Getenv(EnvPrefix+"LOG_LEVEL") == "debug" {
		c.Debug = true
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

// Validate checks every field needed for a full run.
func (c *Config) Validate() error {
	switch {
	case c.ImagePath == "":
		return fmt.Errorf("%w: target image path is required", ErrInvalid)
	case c.OutputPath == "":
		return fmt.Errorf("%w: output path is required", ErrInvalid)
	}
	return c.ValidateModel()
}

// ValidateModel checks the fields needed to train and scan, leaving out the
// per-run image and output paths. The server validates with it.
func (c *Config) ValidateModel() error {
	switch {
	case c.DatasetDir == "":
		return fmt.Errorf("%w: dataset directory is required", ErrInvalid)
	case c.TargetLabel == "":
		return fmt.Errorf("%w: target label is required", ErrInvalid)
	case c.WindowSize.Width <= 0 || c.WindowSize.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d must be positive", ErrInvalid, c.WindowSize.Width, c.WindowSize.Height)
	case c.StepSize <= 0:
		return fmt.Errorf("%w: step size %d must be positive", ErrInvalid, c.StepSize)
	case c.TestFraction < 0 || c.TestFraction >= 1:
		return fmt.Errorf("%w: test fraction %v outside [0, 1)", ErrInvalid, c.TestFraction)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers %d must be at least 1", ErrInvalid, c.Workers)
	case c.BoxThickness < 1:
		return fmt.Errorf("%w: box thickness %d must be at least 1", ErrInvalid, c.BoxThickness)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("%w: jpeg quality %d outside 1-100", ErrInvalid, c.JPEGQuality)
	}

	known := false
	for _, name := range features.Names() {
		if name == c.Extractor {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown extractor %q (known: %v)", ErrInvalid, c.Extractor, features.Names())
	}
	return nil
}
