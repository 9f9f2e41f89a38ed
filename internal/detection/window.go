package detection

import (
	"image"
	"iter"
)

// Window is a fixed-size scan region. X and Y are offsets from the image's
// top-left corner.
type Window struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the window as a rectangle in an image whose bounds start at origin.
func (w Window) Rect(origin image.Point) image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height).Add(origin)
}

// Windows returns the sliding-window sequence over an image of the given bounds.
//
// Rows are the outer loop and columns the inner loop, so windows come out in
// row-major order: left to right, then top to bottom. Y runs from 0 to
// H-height and X from 0 to W-width, both inclusive, in steps of step. Only
// positions where the whole window fits are produced; a right or bottom margin
// narrower than the window is never scanned. If the window is larger than the
// image, or any size is not positive, the sequence is empty.
//
// The sequence is lazy and restartable: every range over it regenerates the
// windows from the start without allocating them up front.
func Windows(bounds image.Rectangle, width, height, step int) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if width <= 0 || height <= 0 || step <= 0 {
			return
		}
		for y := 0; y <= bounds.Dy()-height; y += step {
			for x := 0; x <= bounds.Dx()-width; x += step {
				if !yield(Window{X: x, Y: y, Width: width, Height: height}) {
					return
				}
			}
		}
	}
}

// CountWindows returns the number of windows Windows produces:
//
//	floor((H-height)/step + 1) × floor((W-width)/step + 1)
//
// or 0 when the window does not fit.
func CountWindows(bounds image.Rectangle, width, height, step int) int {
	if width <= 0 || height <= 0 || step <= 0 {
		return 0
	}
	if width > bounds.Dx() || height > bounds.Dy() {
		return 0
	}
	rows := (bounds.Dy()-height)/step + 1
	cols := (bounds.Dx()-width)/step + 1
	return rows * cols
}
