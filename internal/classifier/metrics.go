package classifier

import "github.com/ironsheep/vehicle-detect/internal/dataset"

// LabelMetrics counts held-out predictions for one true label.
type LabelMetrics struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Metrics summarizes a classifier on a held-out subset.
type Metrics struct {
	Total    int                     `json:"total"`
	Correct  int                     `json:"correct"`
	Accuracy float64                 `json:"accuracy"` // 0 when Total is 0
	PerLabel map[string]LabelMetrics `json:"per_label"`
}

// Evaluate predicts every sample in test and tallies the hits.
func Evaluate(p Predictor, test []dataset.Sample) Metrics {
	m := Metrics{PerLabel: make(map[string]LabelMetrics)}
	for _, s := range test {
		lm := m.PerLabel[s.Label]
		lm.Total++
		m.Total++
		if p.Predict(s.Vector) == s.Label {
			lm.Correct++
			m.Correct++
		}
		m.PerLabel[s.Label] = lm
	}
	if m.Total > 0 {
		m.Accuracy = float64(m.Correct) / float64(m.Total)
	}
	return m
}
