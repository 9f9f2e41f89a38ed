package features

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"time"
)

// ErrExtraction marks a single image or patch that could not be turned into a
// feature vector. Callers drop that one sample and continue.
var ErrExtraction = errors.New("feature extraction failed")

// FeatureVector is a fixed-length embedding of an image patch.
//
// Two vectors are comparable only if they were produced by the same extractor
// configuration.
type FeatureVector []float64

// Extractor maps an image patch to a FeatureVector of fixed dimension.
//
// Implementations resize the patch to their own input shape, must be
// deterministic for a fixed configuration and fixed pixels, and must be safe
// for concurrent use. Failures wrap ErrExtraction.
type Extractor interface {
	// Name identifies the extractor kind, e.g. "gradient".
	Name() string

	// Dim is the length of every vector returned by Extract.
	Dim() int

	// Extract computes the embedding of img.
	Extract(img image.Image) (FeatureVector, error)
}

// Config holds the tunables of every built-in extractor.
// Zero fields fall back to the package defaults.
type Config struct {
	// InputSize is the square side, in pixels, each patch is resized to.
	InputSize int `yaml:"input_size"`

	// CellSize is the gradient histogram cell side in pixels.
	CellSize int `yaml:"cell_size"`

	// Bins is the number of gradient orientation bins per cell.
	Bins int `yaml:"bins"`

	// EmbeddingURL is the endpoint of the remote embedding service.
	EmbeddingURL string `yaml:"embedding_url"`

	// EmbeddingDim is the vector length the remote service returns.
	EmbeddingDim int `yaml:"embedding_dim"`

	// Timeout bounds one remote embedding request.
	Timeout time.Duration `yaml:"timeout"`
}

// Package defaults.
const (
	DefaultInputSize  = 64
	DefaultCellSize   = 8
	DefaultBins       = 9
	DefaultRemoteSize = 224
	DefaultTimeout    = 30 * time.Second
)

type constructor func(cfg Config) (Extractor, error)

var registry = map[string]constructor{
	"gradient": func(cfg Config) (Extractor, error) {
		return NewGradient(cfg.InputSize, cfg.CellSize, cfg.Bins)
	},
	"histogram": func(cfg Config) (Extractor, error) {
		return NewHistogram(cfg.InputSize)
	},
	"remote": func(cfg Config) (Extractor, error) {
		return NewRemote(cfg.EmbeddingURL, cfg.EmbeddingDim, cfg.InputSize, cfg.Timeout)
	},
}

// New builds the extractor registered under name.
func New(name string, cfg Config) (Extractor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor %q (known: %v)", name, Names())
	}
	return ctor(cfg)
}

// Names lists the registered extractor names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func emptyImage(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
