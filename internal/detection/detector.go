package detection

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"iter"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/vehicle-detect/internal/classifier"
	"github.com/ironsheep/vehicle-detect/internal/features"
	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

// Default scan parameters.
const (
	DefaultWindowSize = 224
	DefaultStep       = 32
	DefaultThickness  = 2
)

// Options configures one Detect call.
type Options struct {
	// WindowWidth and WindowHeight are the scan window size in pixels.
	WindowWidth  int
	WindowHeight int

	// Step is the stride between neighboring windows, in pixels.
	Step int

	// TargetLabel is the label that counts as "object present". Every other
	// label, including ones the classifier never saw, is negative.
	TargetLabel string

	// Workers bounds the number of windows classified concurrently.
	// Values below 2 scan sequentially.
	Workers int

	// BoxColor and Thickness style the drawn rectangles.
	// Nil color means green; thickness below 1 means DefaultThickness.
	BoxColor  color.Color
	Thickness int
}

// DefaultOptions returns the default 224x224 window, stride 32, green
// 2-pixel boxes and a sequential scan for the given target label.
func DefaultOptions(target string) Options {
	return Options{
		WindowWidth:  DefaultWindowSize,
		WindowHeight: DefaultWindowSize,
		Step:         DefaultStep,
		TargetLabel:  target,
		Workers:      1,
		BoxColor:     color.RGBA{0, 255, 0, 255},
		Thickness:    DefaultThickness,
	}
}

// Validate reports options that cannot produce a meaningful scan.
func (o Options) Validate() error {
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", o.WindowWidth, o.WindowHeight)
	}
	if o.Step <= 0 {
		return fmt.Errorf("step size %d must be positive", o.Step)
	}
	if o.TargetLabel == "" {
		return errors.New("target label is required")
	}
	return nil
}

// Result is the outcome of one scan.
type Result struct {
	// Image is an annotated copy of the input.
	Image *image.RGBA `json:"-"`

	// Boxes are the positive windows in row-major scan order.
	Boxes []Window `json:"boxes"`

	// Count is the number of positive windows. Overlapping positives are
	// each counted.
	Count int `json:"count"`

	// Windows is the number of windows generated.
	Windows int `json:"windows"`

	// Skipped counts windows whose patch had the wrong size or failed
	// feature extraction.
	Skipped int `json:"skipped"`
}

type outcome uint8

const (
	negative outcome = iota
	positive
	skipped
)

// Detect scans img with a sliding window, classifies every window and draws a
// rectangle on a copy of img for each window predicted as opts.TargetLabel.
//
// # Algorithm
//
//  1. Generate windows in row-major order (see Windows)
//  2. Cut an isolated patch for each; skip it if its size is not exactly the
//     window size
//  3. Embed the patch with ext; skip the window on extraction failure
//  4. Predict with p; a window is positive iff the label equals TargetLabel
//  5. Draw one rectangle per positive window on a copy of img
//
// Overlapping positive windows are not merged. With Workers > 1 the windows
// are classified concurrently, but Boxes is still reported in row-major order
// and the annotation is drawn on a single goroutine after the scan.
//
// p and ext are only read and may be shared with other scans. img is never
// modified.
func Detect(img image.Image, p classifier.Predictor, ext features.Extractor, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", imaging.ErrDecode)
	}

	bounds := img.Bounds()
	total := CountWindows(bounds, opts.WindowWidth, opts.WindowHeight, opts.Step)
	windows := Windows(bounds, opts.WindowWidth, opts.WindowHeight, opts.Step)

	var outcomes []outcome
	if opts.Workers > 1 {
		outcomes = scanParallel(img, p, ext, opts, windows, total)
	} else {
		outcomes = make([]outcome, 0, total)
		for w := range windows {
			outcomes = append(outcomes, classify(img, p, ext, opts, w))
		}
	}

	result := &Result{Windows: len(outcomes)}
	rects := make([]image.Rectangle, 0)
	i := 0
	for w := range windows {
		switch outcomes[i] {
		case positive:
			result.Boxes = append(result.Boxes, w)
			rects = append(rects, w.Rect(bounds.Min))
		case skipped:
			result.Skipped++
		}
		i++
	}
	result.Count = len(result.Boxes)

	boxColor := opts.BoxColor
	if boxColor == nil {
		boxColor = color.RGBA{0, 255, 0, 255}
	}
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = DefaultThickness
	}
	result.Image = imaging.DrawRects(img, rects, boxColor, thickness)

	return result, nil
}

// scanParallel classifies windows on up to opts.Workers goroutines. Each
// outcome is stored at its window's scan index, which keeps row-major order.
func scanParallel(img image.Image, p classifier.Predictor, ext features.Extractor, opts Options, windows iter.Seq[Window], total int) []outcome {
	outcomes := make([]outcome, total)

	var g errgroup.Group
	g.SetLimit(opts.Workers)

	i := 0
	for w := range windows {
		idx := i
		g.Go(func() error {
			outcomes[idx] = classify(img, p, ext, opts, w)
			return nil
		})
		i++
	}
	g.Wait()

	return outcomes[:i]
}

// classify runs one window through patch extraction, embedding and prediction.
func classify(img image.Image, p classifier.Predictor, ext features.Extractor, opts Options, w Window) outcome {
	patch := imaging.Patch(img, w.Rect(img.Bounds().Min))
	if patch.Bounds().Dx() != w.Width || patch.Bounds().Dy() != w.Height {
		return skipped
	}

	vec, err := ext.Extract(patch)
	if err != nil {
		log.Printf("Skipping window (%d,%d): %v", w.X, w.Y, err)
		return skipped
	}

	if p.Predict(vec) == opts.TargetLabel {
		return positive
	}
	return negative
}
