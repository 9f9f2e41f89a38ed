package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ironsheep/vehicle-detect/internal/config"
)

// cliOptions are flags that shape the command's output rather than the run.
type cliOptions struct {
	jsonOutput bool
}

// parseConfig layers defaults, the -config YAML file, the environment and
// the explicitly set flags, in that order, and validates the result.
func parseConfig(command string, args []string) (*config.Config, cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("vehicle-detect "+command, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	def := config.Default()
	configPath := fs.String("config", "", "YAML configuration file")
	dataset := fs.String("dataset", def.DatasetDir, "Dataset root with one subdirectory per label")
	image := fs.String("image", "", "Image to scan")
	output := fs.String("output", def.OutputPath, "Annotated output image (.jpg, .jpeg, .png, .bmp)")
	target := fs.String("target", "", "Label that counts as a detection (required)")
	windowWidth := fs.Int("window-width", def.WindowSize.Width, "Window width in pixels")
	windowHeight := fs.Int("window-height", def.WindowSize.Height, "Window height in pixels")
	step := fs.Int("step", def.StepSize, "Stride between windows in pixels")
	testFraction := fs.Float64("test-fraction", def.TestFraction, "Share of samples held out for evaluation")
	seed := fs.Int64("seed", def.Seed, "Seed for the split and training order")
	extractor := fs.String("extractor", def.Extractor, "Feature extractor: gradient, histogram, remote")
	workers := fs.Int("workers", def.Workers, "Windows classified concurrently")
	embeddingURL := fs.String("embedding-url", "", "Embedding service URL for -extractor remote")
	boxColor := fs.String("box-color", def.BoxColor, "Rectangle color as #rrggbb")
	thickness := fs.Int("box-thickness", def.BoxThickness, "Rectangle border width in pixels")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Print the run report as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, opts, err
		}
		return nil, opts, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if fs.NArg() > 0 {
		return nil, opts, fmt.Errorf("%w: unexpected arguments %v", config.ErrInvalid, fs.Args())
	}

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, opts, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, opts, err
	}

	// Only flags given on the command line override the file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dataset":
			cfg.DatasetDir = *dataset
		case "image":
			cfg.ImagePath = *image
		case "output":
			cfg.OutputPath = *output
		case "target":
			cfg.TargetLabel = *target
		case "window-width":
			cfg.WindowSize.Width = *windowWidth
		case "window-height":
			cfg.WindowSize.Height = *windowHeight
		case "step":
			cfg.StepSize = *step
		case "test-fraction":
			cfg.TestFraction = *testFraction
		case "seed":
			cfg.Seed = *seed
		case "extractor":
			cfg.Extractor = *extractor
		case "workers":
			cfg.Workers = *workers
		case "embedding-url":
			cfg.Features.EmbeddingURL = *embeddingURL
		case "box-color":
			cfg.BoxColor = *boxColor
		case "box-thickness":
			cfg.BoxThickness = *thickness
		case "debug":
			cfg.Debug = *debug
		}
	})

	validate := cfg.Validate
	if command == "serve" {
		validate = cfg.ValidateModel
	}
	if err := validate(); err != nil {
		return nil, opts, err
	}
	return cfg, opts, nil
}
