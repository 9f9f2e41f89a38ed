// Package features turns image patches into fixed-length feature vectors.
//
// The pretrained convolutional network the detector was designed around is
// treated as a black box behind the Extractor interface. Three implementations
// ship with the package:
//
//   - gradient: histogram of oriented gradients over Sobel responses
//   - histogram: joint HSV color histogram
//   - remote: an HTTP embedding service (for a pretrained CNN served elsewhere)
//
// An Extractor is built once per process with New and passed explicitly to
// the dataset loader and the detector. There is no package-level instance.
//
// # Determinism
//
// Every extractor returns the same vector for the same configuration and the
// same pixels. Vectors from differently configured extractors must not be
// mixed in one training set.
//
// # Errors
//
// All per-patch failures wrap ErrExtraction. Callers treat such a patch as
// absent and continue with the next one.
package features
