package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Patch returns an isolated copy of the region r of img.
//
// r is given in the image's own coordinate space. The region is clipped to the
// image bounds, so the returned patch can be smaller than r when r extends past
// an edge; callers that need an exact size must check the result. The copy has
// its origin at (0,0) and does not alias img's pixel buffer.
func Patch(img image.Image, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, r)
}

// Fit resizes img to exactly width x height using Lanczos resampling.
//
// Images already at the requested size are cloned instead of resampled so
// that the result never aliases the input.
func Fit(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
