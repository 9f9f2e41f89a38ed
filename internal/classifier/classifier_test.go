package classifier

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ironsheep/vehicle-detect/internal/dataset"
	"github.com/ironsheep/vehicle-detect/internal/features"
)

// oneHotSamples returns perLabel noisy one-hot samples for each label.
// Label k is encoded by ones at positions 2k and 2k+1.
func oneHotSamples(labels []string, perLabel int, seed int64) []dataset.Sample {
	rng := rand.New(rand.NewSource(seed))
	dim := 2 * len(labels)
	var samples []dataset.Sample
	for k, label := range labels {
		for i := 0; i < perLabel; i++ {
			vec := make(features.FeatureVector, dim)
			for j := range vec {
				vec[j] = (rng.Float64() - 0.5) * 0.2
			}
			vec[2*k] += 1
			vec[2*k+1] += 1
			samples = append(samples, dataset.Sample{
				Vector: vec,
				Label:  label,
				Path:   fmt.Sprintf("%s/%d.png", label, i),
			})
		}
	}
	return samples
}

func TestTrain_EmptySamples(t *testing.T) {
	_, _, err := Train(nil, 0.2, 42)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Train on empty samples: got %v, want ErrInsufficientData", err)
	}
}

func TestTrain_RecoversHeldOutLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
	}{
		{"binary", []string{"non-vehicles", "vehicles"}},
		{"one-vs-rest", []string{"bus", "car", "road", "truck"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := oneHotSamples(tt.labels, 20, 7)
			model, set, err := Train(samples, 0.2, 42)
			if err != nil {
				t.Fatalf("Train failed: %v", err)
			}
			if len(set.Test) == 0 {
				t.Fatal("test subset is empty")
			}
			for _, s := range set.Test {
				if got := model.Predict(s.Vector); got != s.Label {
					t.Errorf("%s: predicted %q, want %q", s.Path, got, s.Label)
				}
			}

			metrics := Evaluate(model, set.Test)
			if metrics.Accuracy != 1 {
				t.Errorf("Accuracy: got %f, want 1", metrics.Accuracy)
			}
		})
	}
}

func TestTrain_Deterministic(t *testing.T) {
	samples := oneHotSamples([]string{"a", "b", "c"}, 10, 3)

	m1, s1, err := Train(samples, 0.2, 42)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	m2, s2, err := Train(samples, 0.2, 42)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	if !reflect.DeepEqual(m1.weights, m2.weights) {
		t.Error("same seed produced different weights")
	}
	if !reflect.DeepEqual(s1, s2) {
		t.Error("same seed produced different partitions")
	}
}

func TestTrain_SingleLabel(t *testing.T) {
	samples := oneHotSamples([]string{"vehicles"}, 5, 1)
	model, _, err := Train(samples, 0.2, 42)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if got := model.Predict(samples[0].Vector); got != "vehicles" {
		t.Errorf("single-label model predicted %q", got)
	}
}

func TestLinear_PredictWrongDimension(t *testing.T) {
	samples := oneHotSamples([]string{"a", "b"}, 5, 1)
	model, _, err := Train(samples, 0, 42)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if got := model.Predict(features.FeatureVector{1, 2, 3}); got != "" {
		t.Errorf("wrong-dimension vector predicted %q, want empty", got)
	}
	if model.Dim() != 4 {
		t.Errorf("Dim: got %d, want 4", model.Dim())
	}
	if !reflect.DeepEqual(model.Labels(), []string{"a", "b"}) {
		t.Errorf("Labels: got %v", model.Labels())
	}
}

func TestLinearSVM_FitErrors(t *testing.T) {
	svm := LinearSVM{}
	if _, err := svm.Fit(nil, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty fit: got %v, want ErrInsufficientData", err)
	}
	if _, err := svm.Fit([]features.FeatureVector{{1}}, []string{"a", "b"}); err == nil {
		t.Error("mismatched lengths should fail")
	}
	vecs := []features.FeatureVector{{1, 2}, {1}}
	if _, err := svm.Fit(vecs, []string{"a", "b"}); err == nil {
		t.Error("mixed dimensions should fail")
	}
}

// constantFitter is a stand-in backend that always predicts one label.
type constantFitter struct{ label string }

type constantPredictor string

func (p constantPredictor) Predict(features.FeatureVector) string { return string(p) }

func (f constantFitter) Fit(vecs []features.FeatureVector, labels []string) (Predictor, error) {
	return constantPredictor(f.label), nil
}

func TestTrainWith(t *testing.T) {
	samples := oneHotSamples([]string{"a", "b"}, 5, 1)
	model, set, err := TrainWith(constantFitter{"a"}, samples, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainWith failed: %v", err)
	}
	if len(set.Train)+len(set.Test) != len(samples) {
		t.Errorf("partition lost samples")
	}
	metrics := Evaluate(model, samples)
	if metrics.Correct != 5 || metrics.PerLabel["b"].Correct != 0 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}

	if _, _, err := TrainWith(constantFitter{"a"}, nil, 0.2, 42); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("TrainWith on empty samples: got %v, want ErrInsufficientData", err)
	}
}

func TestSplit(t *testing.T) {
	samples := oneHotSamples([]string{"a", "b"}, 5, 1)

	tests := []struct {
		fraction  float64
		wantTest  int
		wantTrain int
	}{
		{0.2, 2, 8},
		{0.25, 3, 7},
		{0, 0, 10},
		{0.99, 9, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.fraction), func(t *testing.T) {
			set, err := Split(samples, tt.fraction, 42)
			if err != nil {
				t.Fatalf("Split failed: %v", err)
			}
			if len(set.Test) != tt.wantTest || len(set.Train) != tt.wantTrain {
				t.Errorf("sizes: got train=%d test=%d, want train=%d test=%d",
					len(set.Train), len(set.Test), tt.wantTrain, tt.wantTest)
			}

			seen := make(map[string]bool)
			for _, s := range append(append([]dataset.Sample{}, set.Train...), set.Test...) {
				if seen[s.Path] {
					t.Errorf("%s appears twice", s.Path)
				}
				seen[s.Path] = true
			}
			if len(seen) != len(samples) {
				t.Errorf("partition covers %d samples, want %d", len(seen), len(samples))
			}
		})
	}
}

func TestSplit_Reproducible(t *testing.T) {
	samples := oneHotSamples([]string{"a", "b"}, 10, 1)
	s1, _ := Split(samples, 0.2, 42)
	s2, _ := Split(samples, 0.2, 42)
	if !reflect.DeepEqual(s1, s2) {
		t.Error("Split with the same seed is not reproducible")
	}
}

func TestSplit_InvalidFraction(t *testing.T) {
	samples := oneHotSamples([]string{"a"}, 3, 1)
	for _, f := range []float64{-0.1, 1, 1.5} {
		if _, err := Split(samples, f, 42); err == nil {
			t.Errorf("Split with fraction %v should fail", f)
		}
	}
}

func TestSplit_SingleSample(t *testing.T) {
	samples := oneHotSamples([]string{"a"}, 1, 1)
	set, err := Split(samples, 0.2, 42)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(set.Train) != 1 || len(set.Test) != 0 {
		t.Errorf("single sample should go to train: train=%d test=%d", len(set.Train), len(set.Test))
	}
}

func TestEvaluate_Empty(t *testing.T) {
	m := Evaluate(constantPredictor("a"), nil)
	if m.Total != 0 || m.Accuracy != 0 {
		t.Errorf("empty evaluation: %+v", m)
	}
}
