// Package pipeline wires dataset loading, training and detection into one run.
package pipeline

import (
	"errors"
	"fmt"
	"log"

	"github.com/ironsheep/vehicle-detect/internal/classifier"
	"github.com/ironsheep/vehicle-detect/internal/config"
	"github.com/ironsheep/vehicle-detect/internal/dataset"
	"github.com/ironsheep/vehicle-detect/internal/detection"
	"github.com/ironsheep/vehicle-detect/internal/features"
	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

// ErrUnknownTarget is returned when the target label is not one of the
// dataset's labels, so no window could ever be positive.
var ErrUnknownTarget = errors.New("target label not found in dataset")

// Model is a trained classifier together with the extractor that produced its
// training vectors. It is read-only once built and may serve many detections.
type Model struct {
	Extractor  features.Extractor
	Classifier *classifier.Linear
	Split      classifier.TrainingSet
	Labels     map[string]int
	Metrics    classifier.Metrics
}

// Report summarizes a full run.
type Report struct {
	Samples    int                `json:"samples"`
	Labels     map[string]int     `json:"labels"`
	Train      int                `json:"train"`
	Test       int                `json:"test"`
	Metrics    classifier.Metrics `json:"metrics"`
	Count      int                `json:"count"`
	Boxes      []detection.Window `json:"boxes"`
	Windows    int                `json:"windows"`
	OutputPath string             `json:"output_path,omitempty"`
}

// NewExtractor builds the configured extractor. A remote extractor whose
// service does not answer its health check is still returned and the failure
// is only logged; patches that cannot be embedded are skipped individually.
func NewExtractor(cfg *config.Config) (features.Extractor, error) {
	ext, err := features.New(cfg.Extractor, cfg.Features)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if r, ok := ext.(*features.Remote); ok {
		if err := r.CheckHealth(); err != nil {
			log.Printf("Embedding service at %s is not healthy: %v", r.URL, err)
		}
	}
	return ext, nil
}

// Prepare loads the dataset, trains the classifier and checks the target label.
//
// # Errors
//
//   - classifier.ErrInsufficientData if the dataset yields no samples,
//     including when the dataset directory does not exist
//   - ErrUnknownTarget if cfg.TargetLabel is not a dataset label
func Prepare(cfg *config.Config, ext features.Extractor) (*Model, error) {
	debugf(cfg, "Loading dataset from %s", cfg.DatasetDir)
	samples, err := dataset.Load(cfg.DatasetDir, ext)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no data loaded from %s, check the dataset path and contents",
			classifier.ErrInsufficientData, cfg.DatasetDir)
	}

	labels := dataset.Summary(samples)
	for label, n := range labels {
		log.Printf("Loaded %d samples for label %q", n, label)
	}
	if _, ok := labels[cfg.TargetLabel]; !ok {
		return nil, fmt.Errorf("%w: %q (known labels: %v)", ErrUnknownTarget, cfg.TargetLabel, dataset.Labels(samples))
	}

	model, set, err := classifier.Train(samples, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	metrics := classifier.Evaluate(model, set.Test)
	log.Printf("Trained on %d samples, held-out accuracy %.3f (%d/%d)",
		len(set.Train), metrics.Accuracy, metrics.Correct, metrics.Total)

	return &Model{
		Extractor:  ext,
		Classifier: model,
		Split:      set,
		Labels:     labels,
		Metrics:    metrics,
	}, nil
}

// DetectionOptions maps the configuration onto detection.Options.
func DetectionOptions(cfg *config.Config) (detection.Options, error) {
	boxColor, err := imaging.ParseColor(cfg.BoxColor)
	if err != nil {
		return detection.Options{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return detection.Options{
		WindowWidth:  cfg.WindowSize.Width,
		WindowHeight: cfg.WindowSize.Height,
		Step:         cfg.StepSize,
		TargetLabel:  cfg.TargetLabel,
		Workers:      cfg.Workers,
		BoxColor:     boxColor,
		Thickness:    cfg.BoxThickness,
	}, nil
}

// DetectFile decodes imagePath with cache and scans it.
// Errors from decoding wrap imaging.ErrMissingPath or imaging.ErrDecode.
func (m *Model) DetectFile(cache *imaging.ImageCache, imagePath string, opts detection.Options) (*detection.Result, error) {
	img, err := cache.Load(imagePath)
	if err != nil {
		return nil, err
	}
	return detection.Detect(img, m.Classifier, m.Extractor, opts)
}

// Run executes a full load -> train -> detect -> write cycle.
//
// A missing or undecodable target image is not an error: it is logged and the
// report carries zero detections and no output path. Every other failure is
// returned.
func Run(cfg *config.Config) (*Report, error) {
	opts, err := DetectionOptions(cfg)
	if err != nil {
		return nil, err
	}
	ext, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	model, err := Prepare(cfg, ext)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Samples: len(model.Split.Train) + len(model.Split.Test),
		Labels:  model.Labels,
		Train:   len(model.Split.Train),
		Test:    len(model.Split.Test),
		Metrics: model.Metrics,
	}

	debugf(cfg, "Scanning %s with %dx%d windows, step %d, %d workers",
		cfg.ImagePath, opts.WindowWidth, opts.WindowHeight, opts.Step, opts.Workers)
	result, err := model.DetectFile(imaging.NewImageCache(), cfg.ImagePath, opts)
	if err != nil {
		if errors.Is(err, imaging.ErrMissingPath) || errors.Is(err, imaging.ErrDecode) {
			log.Printf("Error: could not load image %s: %v", cfg.ImagePath, err)
			return report, nil
		}
		return nil, err
	}

	report.Count = result.Count
	report.Boxes = result.Boxes
	report.Windows = result.Windows
	if result.Skipped > 0 {
		log.Printf("Skipped %d of %d windows", result.Skipped, result.Windows)
	}

	if err := imaging.Save(result.Image, cfg.OutputPath, cfg.JPEGQuality); err != nil {
		return nil, err
	}
	report.OutputPath = cfg.OutputPath
	log.Printf("Wrote %d detections to %s", result.Count, cfg.OutputPath)

	return report, nil
}

func debugf(cfg *config.Config, format string, args ...interface{}) {
	if cfg.Debug {
		log.Printf(format, args...)
	}
}
