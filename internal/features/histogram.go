package features

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

// Histogram bin counts per HSV channel.
const (
	hueBins = 8
	satBins = 4
	valBins = 4
)

// Histogram embeds a patch as a joint HSV color histogram.
//
// Pixels are binned by hue (8 bins over 0-360°), saturation (4 bins) and value
// (4 bins), and the counts are normalized to sum to 1. Fully transparent
// pixels are ignored.
type Histogram struct {
	InputSize int
}

// NewHistogram returns a Histogram extractor. A zero inputSize takes the default.
func NewHistogram(inputSize int) (*Histogram, error) {
	if inputSize == 0 {
		inputSize = DefaultInputSize
	}
	if inputSize < 0 {
		return nil, fmt.Errorf("histogram: input size must be positive")
	}
	return &Histogram{InputSize: inputSize}, nil
}

// Name implements Extractor.
func (h *Histogram) Name() string { return "histogram" }

// Dim implements Extractor.
func (h *Histogram) Dim() int { return hueBins * satBins * valBins }

// Extract implements Extractor.
func (h *Histogram) Extract(img image.Image) (FeatureVector, error) {
	if emptyImage(img) {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}

	small := imaging.Fit(img, h.InputSize, h.InputSize)
	bounds := small.Bounds()
	vec := make(FeatureVector, h.Dim())
	counted := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(small.At(x, y))
			if !ok {
				continue
			}
			hue, sat, val := c.Hsv()
			hb := binOf(hue/360.0, hueBins)
			sb := binOf(sat, satBins)
			vb := binOf(val, valBins)
			vec[(hb*satBins+sb)*valBins+vb]++
			counted++
		}
	}

	if counted == 0 {
		return nil, fmt.Errorf("%w: no opaque pixels", ErrExtraction)
	}
	for i := range vec {
		vec[i] /= float64(counted)
	}
	return vec, nil
}

// binOf maps v in [0, 1] to one of n bins.
func binOf(v float64, n int) int {
	b := int(v * float64(n))
	if b < 0 {
		return 0
	}
	if b >= n {
		return n - 1
	}
	return b
}
