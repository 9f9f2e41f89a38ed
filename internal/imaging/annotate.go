package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultBoxColor is the rectangle color used for detections.
const DefaultBoxColor = "#00FF00"

// ParseColor parses a hex color string like "#00FF00" or "#0F0".
//
// The returned color is fully opaque.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// DrawRects returns a copy of img with the outline of every rectangle drawn on it.
//
// Rectangles are drawn in the order given, each with a border of the given
// thickness lying inside the rectangle. Pixels outside the image are clipped.
// Overlapping rectangles are all drawn; nothing is merged. The input image is
// never modified.
func DrawRects(img image.Image, rects []image.Rectangle, c color.Color, thickness int) *image.RGBA {
	out := clone.AsRGBA(img)
	if thickness < 1 {
		thickness = 1
	}
	for _, r := range rects {
		drawRect(out, r, c, thickness)
	}
	return out
}

// drawRect paints the four border strips of r onto dst.
func drawRect(dst *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	t := thickness
	if t*2 > r.Dx() || t*2 > r.Dy() {
		fill(dst, r, c)
		return
	}
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y+t, r.Min.X+t, r.Max.Y-t), c)
	fill(dst, image.Rect(r.Max.X-t, r.Min.Y+t, r.Max.X, r.Max.Y-t), c)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Set(x, y, c)
		}
	}
}
