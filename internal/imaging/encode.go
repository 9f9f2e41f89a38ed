package imaging

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// DefaultJPEGQuality is the quality used when writing annotated JPEG output.
const DefaultJPEGQuality = 95

// Save writes img to path, choosing the encoder from the file extension.
//
// Supported output extensions are .jpg/.jpeg (encoded at the given quality),
// .png and .bmp. Any other extension is an error and nothing is written.
func Save(img image.Image, path string, jpegQuality int) error {
	enc, err := encoderFor(path, jpegQuality)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return nil
}

func encoderFor(path string, jpegQuality int) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		if jpegQuality < 1 || jpegQuality > 100 {
			jpegQuality = DefaultJPEGQuality
		}
		return imgio.JPEGEncoder(jpegQuality), nil
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", filepath.Ext(path))
}
