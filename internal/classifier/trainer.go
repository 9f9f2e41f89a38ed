package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ironsheep/vehicle-detect/internal/dataset"
	"github.com/ironsheep/vehicle-detect/internal/features"
)

// TrainingSet is a train/test partition of loaded samples.
type TrainingSet struct {
	Train []dataset.Sample
	Test  []dataset.Sample
}

// Split partitions samples into train and test subsets.
//
// The test subset holds ceil(n * testFraction) samples, capped so that the
// train subset keeps at least one. Membership is drawn from a permutation
// seeded by seed, so the same inputs always give the same partition.
// testFraction must lie in [0, 1).
func Split(samples []dataset.Sample, testFraction float64, seed int64) (TrainingSet, error) {
	if testFraction < 0 || testFraction >= 1 {
		return TrainingSet{}, fmt.Errorf("test fraction %v outside [0, 1)", testFraction)
	}
	n := len(samples)
	nTest := int(math.Ceil(float64(n)*testFraction - 1e-9))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	set := TrainingSet{
		Train: make([]dataset.Sample, 0, n-nTest),
		Test:  make([]dataset.Sample, 0, nTest),
	}
	for i, idx := range perm {
		if i < nTest {
			set.Test = append(set.Test, samples[idx])
		} else {
			set.Train = append(set.Train, samples[idx])
		}
	}
	return set, nil
}

// Train splits samples and fits a LinearSVM with the default regularization
// on the train subset.
func Train(samples []dataset.Sample, testFraction float64, seed int64) (*Linear, TrainingSet, error) {
	svm := LinearSVM{C: DefaultC, Epochs: DefaultEpochs, Seed: seed}
	set, err := split(samples, testFraction, seed)
	if err != nil {
		return nil, TrainingSet{}, err
	}
	vecs, labels := unzip(set.Train)
	model, err := svm.FitLinear(vecs, labels)
	if err != nil {
		return nil, TrainingSet{}, err
	}
	return model, set, nil
}

// TrainWith is Train with a caller-supplied fitting backend.
func TrainWith(f Fitter, samples []dataset.Sample, testFraction float64, seed int64) (Predictor, TrainingSet, error) {
	set, err := split(samples, testFraction, seed)
	if err != nil {
		return nil, TrainingSet{}, err
	}
	vecs, labels := unzip(set.Train)
	model, err := f.Fit(vecs, labels)
	if err != nil {
		return nil, TrainingSet{}, err
	}
	return model, set, nil
}

func split(samples []dataset.Sample, testFraction float64, seed int64) (TrainingSet, error) {
	if len(samples) == 0 {
		return TrainingSet{}, ErrInsufficientData
	}
	return Split(samples, testFraction, seed)
}

func unzip(samples []dataset.Sample) ([]features.FeatureVector, []string) {
	vecs := make([]features.FeatureVector, len(samples))
	labels := make([]string, len(samples))
	for i, s := range samples {
		vecs[i] = s.Vector
		labels[i] = s.Label
	}
	return vecs, labels
}
