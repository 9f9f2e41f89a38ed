// Package classifier fits and applies linear maximum-margin classifiers over
// feature vectors.
//
// The optimization routine sits behind two narrow capabilities, Fitter and
// Predictor, so any numeric backend can replace the built-in LinearSVM. The
// rest of the system only ever calls Predict.
package classifier

import (
	"errors"

	"github.com/ironsheep/vehicle-detect/internal/features"
)

// ErrInsufficientData is returned when there are no samples to train on.
var ErrInsufficientData = errors.New("insufficient data: no samples to train on")

// Predictor maps a feature vector to a label. Implementations are immutable
// once built and safe for concurrent use.
type Predictor interface {
	Predict(vec features.FeatureVector) string
}

// Fitter builds a Predictor from labeled vectors in one batch.
type Fitter interface {
	Fit(vecs []features.FeatureVector, labels []string) (Predictor, error)
}
