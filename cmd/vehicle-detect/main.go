package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/vehicle-detect/internal/config"
	"github.com/ironsheep/vehicle-detect/internal/pipeline"
	"github.com/ironsheep/vehicle-detect/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `vehicle-detect - sliding-window vehicle detector

Usage:
  vehicle-detect [run] [flags]    Train on the dataset, scan one image, write the annotated copy
  vehicle-detect serve [flags]    Train once, then answer MCP requests over stdin/stdout
  vehicle-detect version          Print version information
  vehicle-detect help             Print this help message

Flags are applied on top of the YAML file given with -config, which is
applied on top of VEHICLE_DETECT_* environment variables and defaults.

Environment variables:
  VEHICLE_DETECT_LOG_LEVEL=debug    Enable debug logging
  VEHICLE_DETECT_DATASET_DIR, VEHICLE_DETECT_IMAGE, VEHICLE_DETECT_OUTPUT,
  VEHICLE_DETECT_TARGET_LABEL, VEHICLE_DETECT_EXTRACTOR,
  VEHICLE_DETECT_EMBEDDING_URL, VEHICLE_DETECT_WORKERS

Exit status: 0 on success (including a missing target image), 1 when no
training data is found or the target label is unknown, 2 on invalid
configuration.
`

func main() {
	args := os.Args[1:]
	command := "run"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("vehicle-detect %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Print(usage)
			return
		case "run", "serve":
			command = args[0]
			args = args[1:]
		}
	}

	// Configure logging to stderr (stdout carries results and the MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, opts, err := parseConfig(command, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fatal(err)
	}
	if cfg.Debug {
		log.Printf("vehicle-detect v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	switch command {
	case "serve":
		err = serve(cfg)
	default:
		err = run(cfg, opts.jsonOutput)
	}
	if err != nil {
		fatal(err)
	}
}

func run(cfg *config.Config, jsonOutput bool) error {
	report, err := pipeline.Run(cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Printf("Total vehicles detected: %d\n", report.Count)
	if report.OutputPath != "" {
		fmt.Printf("Annotated image: %s\n", report.OutputPath)
	}
	return nil
}

func serve(cfg *config.Config) error {
	ext, err := pipeline.NewExtractor(cfg)
	if err != nil {
		return err
	}
	model, err := pipeline.Prepare(cfg, ext)
	if err != nil {
		return err
	}

	server.Version = Version
	log.Printf("Serving detections for %q over stdio", cfg.TargetLabel)
	if err := server.New(model, cfg).Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "vehicle-detect: %v\n", err)
	os.Exit(exitCode(err))
}

// exitCode maps an error onto the process exit status: 2 for configuration
// errors, 1 for everything else, including missing training data and an
// unknown target label.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, config.ErrInvalid):
		return 2
	default:
		return 1
	}
}
