package features

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

// Gradient is a histogram-of-oriented-gradients extractor.
//
// The patch is resized to InputSize x InputSize and converted to luminance.
// Sobel gradients are accumulated into Bins unsigned orientation bins per
// CellSize x CellSize cell, weighted by magnitude, and the concatenated cell
// histograms are L2-normalized.
//
// # Dimension
//
//	Dim = (InputSize / CellSize)² × Bins
//
// With the defaults (64, 8, 9) this is 576.
type Gradient struct {
	InputSize int
	CellSize  int
	Bins      int
}

// NewGradient validates the configuration and returns a Gradient extractor.
// Zero arguments take the package defaults.
func NewGradient(inputSize, cellSize, bins int) (*Gradient, error) {
	if inputSize == 0 {
		inputSize = DefaultInputSize
	}
	if cellSize == 0 {
		cellSize = DefaultCellSize
	}
	if bins == 0 {
		bins = DefaultBins
	}
	if inputSize < 0 || cellSize < 0 || bins < 0 {
		return nil, fmt.Errorf("gradient: sizes must be positive")
	}
	if inputSize%cellSize != 0 {
		return nil, fmt.Errorf("gradient: input size %d is not a multiple of cell size %d", inputSize, cellSize)
	}
	return &Gradient{InputSize: inputSize, CellSize: cellSize, Bins: bins}, nil
}

// Name implements Extractor.
func (g *Gradient) Name() string { return "gradient" }

// Dim implements Extractor.
func (g *Gradient) Dim() int {
	cells := g.InputSize / g.CellSize
	return cells * cells * g.Bins
}

// Extract implements Extractor.
func (g *Gradient) Extract(img image.Image) (FeatureVector, error) {
	if emptyImage(img) {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}

	size := g.InputSize
	gray := luminance(imaging.Fit(img, size, size))

	cells := size / g.CellSize
	vec := make(FeatureVector, g.Dim())
	binWidth := math.Pi / float64(g.Bins)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			gx, gy := sobel(gray, x, y, size, size)
			mag := math.Sqrt(gx*gx + gy*gy)
			if mag == 0 {
				continue
			}

			// Unsigned orientation in [0, π)
			angle := math.Atan2(gy, gx)
			if angle < 0 {
				angle += math.Pi
			}
			if angle >= math.Pi {
				angle -= math.Pi
			}
			bin := int(angle / binWidth)
			if bin >= g.Bins {
				bin = g.Bins - 1
			}

			cell := (y/g.CellSize)*cells + x/g.CellSize
			vec[cell*g.Bins+bin] += mag
		}
	}

	normalizeL2(vec)
	return vec, nil
}

// luminance converts img to a grid of ITU-R BT.601 luma values in [0, 1].
func luminance(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}
	return gray
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// sobel returns the X and Y gradients at (x, y). Border pixels use clamped
// (replicated) edge values.
func sobel(gray [][]float64, x, y, width, height int) (float64, float64) {
	var gx, gy float64
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			py := clamp(y+ky, 0, height-1)
			px := clamp(x+kx, 0, width-1)
			gx += gray[py][px] * sobelX[ky+1][kx+1]
			gy += gray[py][px] * sobelY[ky+1][kx+1]
		}
	}
	return gx, gy
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// normalizeL2 scales vec to unit length in place. A zero vector is left as is.
func normalizeL2(vec FeatureVector) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}
