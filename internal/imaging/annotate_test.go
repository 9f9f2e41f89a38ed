package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestPatch(t *testing.T) {
	img := createPatternImage(100, 100)

	patch := Patch(img, image.Rect(50, 0, 100, 50))
	if patch.Bounds().Dx() != 50 || patch.Bounds().Dy() != 50 {
		t.Fatalf("dimensions: got %dx%d, want 50x50", patch.Bounds().Dx(), patch.Bounds().Dy())
	}
	if patch.Bounds().Min != (image.Point{}) {
		t.Errorf("patch origin: got %v, want (0,0)", patch.Bounds().Min)
	}
	// Top-right quadrant is green
	if r, g, b := rgbAt(patch, 10, 10); r != 0 || g != 255 || b != 0 {
		t.Errorf("patch color: got (%d,%d,%d), want (0,255,0)", r, g, b)
	}
}

func TestPatch_ClippedAtEdge(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	patch := Patch(img, image.Rect(80, 80, 112, 112))
	if patch.Bounds().Dx() != 20 || patch.Bounds().Dy() != 20 {
		t.Errorf("clipped dimensions: got %dx%d, want 20x20", patch.Bounds().Dx(), patch.Bounds().Dy())
	}
}

func TestPatch_DoesNotAlias(t *testing.T) {
	img := createInMemoryImage(10, 10, color.RGBA{255, 0, 0, 255})
	patch := Patch(img, image.Rect(0, 0, 5, 5))
	patch.Set(0, 0, color.RGBA{0, 0, 0, 255})

	if r, _, _ := rgbAt(img, 0, 0); r != 255 {
		t.Error("modifying the patch changed the source image")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"downscale", 32, 32},
		{"upscale", 300, 200},
		{"same size", 100, 50},
	}

	img := createInMemoryImage(100, 50, color.RGBA{0, 0, 255, 255})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Fit(img, tt.width, tt.height)
			if out.Bounds().Dx() != tt.width || out.Bounds().Dy() != tt.height {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy(), tt.width, tt.height)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		hex     string
		want    color.RGBA
		wantErr bool
	}{
		{"#00FF00", color.RGBA{0, 255, 0, 255}, false},
		{"#ff0000", color.RGBA{255, 0, 0, 255}, false},
		{"#00f", color.RGBA{0, 0, 255, 255}, false},
		{"green", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			got, err := ParseColor(tt.hex)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) should fail", tt.hex)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) failed: %v", tt.hex, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q): got %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestDrawRects(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	green := color.RGBA{0, 255, 0, 255}

	out := DrawRects(img, []image.Rectangle{image.Rect(10, 10, 42, 42)}, green, 2)

	edges := []image.Point{
		{10, 10}, {11, 11}, // top-left corner, both border rows
		{41, 20}, {40, 20}, // right border
		{20, 41}, {20, 40}, // bottom border
		{10, 30},           // left border
	}
	for _, p := range edges {
		if r, g, b := rgbAt(out, p.X, p.Y); r != 0 || g != 255 || b != 0 {
			t.Errorf("border pixel %v: got (%d,%d,%d), want green", p, r, g, b)
		}
	}

	inside := []image.Point{{12, 12}, {26, 26}, {39, 39}, {9, 9}, {42, 42}}
	for _, p := range inside {
		if r, g, b := rgbAt(out, p.X, p.Y); r != 0 || g != 0 || b != 0 {
			t.Errorf("non-border pixel %v: got (%d,%d,%d), want black", p, r, g, b)
		}
	}

	// Source image is untouched
	if _, g, _ := rgbAt(img, 10, 10); g != 0 {
		t.Error("DrawRects modified the source image")
	}
}

func TestDrawRects_Overlapping(t *testing.T) {
	img := createInMemoryImage(64, 64, color.RGBA{0, 0, 0, 255})
	rects := []image.Rectangle{
		image.Rect(0, 0, 32, 32),
		image.Rect(16, 16, 48, 48),
	}

	out := DrawRects(img, rects, color.RGBA{0, 255, 0, 255}, 1)

	// Both outlines are present, including the second's top edge inside the first.
	for _, p := range []image.Point{{0, 0}, {31, 5}, {16, 20}, {30, 16}, {47, 47}} {
		if _, g, _ := rgbAt(out, p.X, p.Y); g != 255 {
			t.Errorf("pixel %v should be part of an outline", p)
		}
	}
}

func TestDrawRects_ClippedAndThick(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{0, 0, 0, 255})

	// Thickness larger than half the rectangle fills it; rectangle past the
	// edge is clipped without panicking.
	out := DrawRects(img, []image.Rectangle{image.Rect(15, 15, 19, 19), image.Rect(10, 10, 40, 40)}, color.RGBA{0, 255, 0, 255}, 3)
	if _, g, _ := rgbAt(out, 16, 16); g != 255 {
		t.Error("small rectangle should be filled when thickness exceeds half its size")
	}
}

func TestSave(t *testing.T) {
	img := createPatternImage(40, 40)
	dir := t.TempDir()

	for _, name := range []string{"out.jpg", "out.jpeg", "out.png", "out.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(img, path, 90); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			decoded, err := Open(path)
			if err != nil {
				t.Fatalf("saved file cannot be reopened: %v", err)
			}
			if decoded.Bounds().Dx() != 40 || decoded.Bounds().Dy() != 40 {
				t.Errorf("dimensions: got %dx%d, want 40x40", decoded.Bounds().Dx(), decoded.Bounds().Dy())
			}
		})
	}
}

func TestSave_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.webp")
	if err := Save(createPatternImage(10, 10), path, 90); err == nil {
		t.Error("Save should fail for unsupported extension")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("Save should not create a file for unsupported extension")
	}
}
