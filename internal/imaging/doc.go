// Package imaging provides the image I/O and pixel primitives the detector is built on.
//
// This package decodes dataset and target images, cuts isolated patches out of
// an image, resizes patches to an extractor's input shape, draws detection
// rectangles on a copy of an image and encodes the annotated result. All
// operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Supported Formats
//
// Decoding accepts PNG, JPEG, GIF and BMP. IsImageFile applies the matching
// case-insensitive extension allow-list (.png, .jpg, .jpeg, .bmp, .gif).
// Encoding writes JPEG, PNG or BMP depending on the output extension.
//
// # Ownership
//
// Decoded images are never modified. Patch and Fit return fresh buffers and
// DrawRects draws on a copy, so an image may be shared read-only by any number
// of goroutines.
//
// # Error Handling
//
// Open distinguishes two conditions callers treat differently:
//   - ErrMissingPath: the file does not exist
//   - ErrDecode: the file exists but is not a supported image
//
// Both are wrapped with the offending path; test them with errors.Is.
package imaging
