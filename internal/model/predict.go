package model

import (
	"github.com/feedlens/feedlens/internal/normalize"
)

// Prediction is the scored result for one input text.
type Prediction struct {
	Label         string             `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Predict normalizes raw text with the identical transform used at
// training time, maps it into the fitted feature space (unseen tokens
// contribute nothing), and returns the arg-max class with its
// probability plus the full distribution. Pure, no side effects.
func (m *TrainedModel) Predict(text string) Prediction {
	doc := m.Vectorizer.Transform(normalize.Text(text))
	probs := m.Classifier.Probabilities(doc)

	dist := make(map[string]float64, len(probs))
	best := 0
	for i, class := range m.Classifier.Classes {
		dist[class] = probs[i]
		if probs[i] > probs[best] {
			best = i
		}
	}
	return Prediction{
		Label:         m.Classifier.Classes[best],
		Confidence:    probs[best],
		Probabilities: dist,
	}
}
