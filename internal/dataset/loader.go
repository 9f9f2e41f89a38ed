// Package dataset turns a labeled image directory tree into feature vectors.
//
// The expected layout is two levels deep:
//
//	root/
//	  vehicles/
//	    car01.png
//	    truck.jpg
//	  non-vehicles/
//	    road.png
//
// Each immediate subdirectory of root is a label and every image inside it is
// one sample of that label.
package dataset

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/ironsheep/vehicle-detect/internal/features"
	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

// Sample is one labeled feature vector.
type Sample struct {
	Vector features.FeatureVector
	Label  string
	// Path is the source image, kept for diagnostics.
	Path string
}

// Load walks root and extracts one Sample per qualifying image.
//
// Files without an allow-listed image extension, files directly under root and
// nested directories inside a label directory are ignored. A file that fails
// to decode or extract is logged and dropped; loading continues. A vector whose
// length differs from the extractor's Dim is dropped too, so every returned
// sample has the same dimension.
//
// A missing root is not an error: Load logs it and returns an empty result,
// leaving the decision to the caller. Samples are returned in directory
// enumeration order.
func Load(root string, ext features.Extractor) ([]Sample, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Dataset directory does not exist: %s", root)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var samples []Sample
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		label := entry.Name()
		labelDir := filepath.Join(root, label)

		files, err := os.ReadDir(labelDir)
		if err != nil {
			log.Printf("Skipping label directory %s: %v", labelDir, err)
			continue
		}

		for _, f := range files {
			if f.IsDir() || !imaging.IsImageFile(f.Name()) {
				continue
			}
			path := filepath.Join(labelDir, f.Name())
			vec, err := extractFile(path, ext)
			if err != nil {
				log.Printf("Skipping %s: %v", path, err)
				continue
			}
			samples = append(samples, Sample{Vector: vec, Label: label, Path: path})
		}
	}

	return samples, nil
}

func extractFile(path string, ext features.Extractor) (features.FeatureVector, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", features.ErrExtraction, err)
	}
	vec, err := ext.Extract(img)
	if err != nil {
		return nil, err
	}
	if len(vec) != ext.Dim() {
		return nil, fmt.Errorf("%w: vector has %d values, want %d", features.ErrExtraction, len(vec), ext.Dim())
	}
	return vec, nil
}

// Summary counts samples per label.
func Summary(samples []Sample) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[s.Label]++
	}
	return counts
}

// Labels returns the distinct labels in samples, sorted.
func Labels(samples []Sample) []string {
	counts := Summary(samples)
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
