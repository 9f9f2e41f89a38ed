// Package detection finds object instances in an image with a sliding-window scan.
//
// A fixed-size window is stepped across the image at a fixed stride. Every
// window is cut out as an isolated patch, embedded by a features.Extractor and
// labeled by a classifier.Predictor. Windows whose predicted label equals the
// configured target label are detections.
//
// # Scan Order
//
// Windows are generated row-major: Y is the outer loop and X the inner loop,
// both starting at 0. Detections are always reported in this order, including
// when the scan runs on several goroutines, so results are reproducible and
// comparable across runs.
//
// # Coverage
//
// Windows are only placed where they fit entirely inside the image. When
// (W - window width) is not a multiple of the stride, the rightmost strip
// narrower than a window is never scanned; the same holds for the bottom
// strip. The image is not padded.
//
// # Overlaps
//
// Every positive window is one detection and one rectangle. Overlapping
// positives are not merged or suppressed.
//
// # Coordinate System
//
// Window coordinates are offsets from the image's top-left corner:
//   - X increases rightward
//   - Y increases downward
//   - a window covers [X, X+Width) × [Y, Y+Height)
package detection
