package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ironsheep/vehicle-detect/internal/features"
)

// Solver defaults.
const (
	// DefaultC is the regularization strength; lambda = 1 / (C * n).
	DefaultC = 1.0

	// DefaultEpochs is the number of passes over the training set.
	DefaultEpochs = 50
)

// LinearSVM fits a linear support vector machine with the Pegasos stochastic
// subgradient solver on the hinge loss.
//
// With two labels a single machine separates them; with more, one machine per
// label is trained against the rest. The bias is learned as the weight of a
// constant 1 feature. Sample order is drawn from Seed, so a fit is fully
// deterministic.
type LinearSVM struct {
	C      float64
	Epochs int
	Seed   int64
}

// Linear is a fitted linear classifier.
type Linear struct {
	labels  []string
	dim     int
	weights [][]float64 // one row per machine, dim+1 wide (bias last)
}

// Fit implements Fitter.
func (s LinearSVM) Fit(vecs []features.FeatureVector, labels []string) (Predictor, error) {
	return s.FitLinear(vecs, labels)
}

// FitLinear fits and returns the concrete *Linear.
func (s LinearSVM) FitLinear(vecs []features.FeatureVector, labels []string) (*Linear, error) {
	if len(vecs) == 0 {
		return nil, ErrInsufficientData
	}
	if len(vecs) != len(labels) {
		return nil, fmt.Errorf("got %d vectors but %d labels", len(vecs), len(labels))
	}
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	c := s.C
	if c <= 0 {
		c = DefaultC
	}
	epochs := s.Epochs
	if epochs <= 0 {
		epochs = DefaultEpochs
	}

	classes := distinct(labels)
	m := &Linear{labels: classes, dim: dim}

	switch len(classes) {
	case 1:
		// Constant predictor
	case 2:
		m.weights = [][]float64{
			pegasos(vecs, binaryTargets(labels, classes[1]), c, epochs, s.Seed),
		}
	default:
		m.weights = make([][]float64, len(classes))
		for k, class := range classes {
			m.weights[k] = pegasos(vecs, binaryTargets(labels, class), c, epochs, s.Seed+int64(k))
		}
	}

	return m, nil
}

// Predict implements Predictor. A vector of the wrong dimension predicts "".
func (m *Linear) Predict(vec features.FeatureVector) string {
	if len(vec) != m.dim {
		return ""
	}
	switch len(m.labels) {
	case 1:
		return m.labels[0]
	case 2:
		if decision(m.weights[0], vec) > 0 {
			return m.labels[1]
		}
		return m.labels[0]
	}

	best := 0
	bestScore := math.Inf(-1)
	for k, w := range m.weights {
		if score := decision(w, vec); score > bestScore {
			best, bestScore = k, score
		}
	}
	return m.labels[best]
}

// Labels returns the sorted label set the classifier was fit on.
func (m *Linear) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Dim returns the feature dimension the classifier expects.
func (m *Linear) Dim() int { return m.dim }

// pegasos trains one binary machine for targets in {-1, +1} and returns its
// weights with the bias appended.
func pegasos(vecs []features.FeatureVector, targets []float64, c float64, epochs int, seed int64) []float64 {
	n := len(vecs)
	dim := len(vecs[0])
	lambda := 1.0 / (c * float64(n))
	radius := 1.0 / math.Sqrt(lambda)

	w := make([]float64, dim+1)
	rng := rand.New(rand.NewSource(seed))
	t := 0

	for epoch := 0; epoch < epochs; epoch++ {
		for _, i := range rng.Perm(n) {
			t++
			eta := 1.0 / (lambda * float64(t))
			y := targets[i]
			margin := y * decision(w, vecs[i])

			scale := 1 - eta*lambda
			for j := range w {
				w[j] *= scale
			}
			if margin < 1 {
				for j, x := range vecs[i] {
					w[j] += eta * y * x
				}
				w[dim] += eta * y
			}

			// Project onto the ball of radius 1/sqrt(lambda)
			if norm := l2(w); norm > radius {
				f := radius / norm
				for j := range w {
					w[j] *= f
				}
			}
		}
	}
	return w
}

func decision(w []float64, vec features.FeatureVector) float64 {
	bias := len(w) - 1
	score := w[bias]
	for j, x := range vec {
		score += w[j] * x
	}
	return score
}

func l2(w []float64) float64 {
	var sum float64
	for _, v := range w {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func binaryTargets(labels []string, positive string) []float64 {
	targets := make([]float64, len(labels))
	for i, l := range labels {
		if l == positive {
			targets[i] = 1
		} else {
			targets[i] = -1
		}
	}
	return targets
}

func distinct(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}
