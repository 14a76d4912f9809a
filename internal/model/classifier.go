package model

import (
	"math"
	"sort"
)

// DefaultMaxIterations bounds the gradient descent loop when the loss
// does not converge first.
const DefaultMaxIterations = 1000

// convergenceTol stops training once the mean log-loss improves by
// less than this between iterations.
const convergenceTol = 1e-6

// learningRate for full-batch gradient descent. Documents are
// L2-normalized, so a fixed rate is stable across datasets.
const learningRate = 1.0

// Classifier is a fitted multinomial logistic-regression model.
// Weights are dense per class over the vectorizer's feature space with
// one trailing bias term per class. Classes are kept in sorted order
// so training is deterministic.
type Classifier struct {
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"` // [class][feature..., bias]
}

// fitClassifier trains softmax regression with full-batch gradient
// descent: zero-initialized weights, fixed iteration cap, loss-based
// early stop. Inputs are parallel slices of sparse document vectors
// and their class labels.
func fitClassifier(docs []docVector, labels []string, numFeatures, maxIterations int) *Classifier {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	classSet := make(map[string]struct{})
	for _, l := range labels {
		classSet[l] = struct{}{}
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = classIndex[l]
	}

	k := len(classes)
	dim := numFeatures + 1 // trailing bias
	weights := make([][]float64, k)
	for c := range weights {
		weights[c] = make([]float64, dim)
	}

	n := float64(len(docs))
	prevLoss := math.Inf(1)
	probs := make([]float64, k)
	grad := make([][]float64, k)
	for c := range grad {
		grad[c] = make([]float64, dim)
	}

	for iter := 0; iter < maxIterations; iter++ {
		for c := range grad {
			for j := range grad[c] {
				grad[c][j] = 0
			}
		}

		var loss float64
		for i, doc := range docs {
			softmaxInto(probs, weights, doc, numFeatures)
			loss -= math.Log(math.Max(probs[y[i]], 1e-15))

			for c := 0; c < k; c++ {
				diff := probs[c]
				if c == y[i] {
					diff -= 1
				}
				for _, f := range doc {
					grad[c][f.index] += diff * f.value
				}
				grad[c][numFeatures] += diff // bias
			}
		}
		loss /= n

		for c := 0; c < k; c++ {
			for j := 0; j < dim; j++ {
				weights[c][j] -= learningRate * grad[c][j] / n
			}
		}

		if prevLoss-loss < convergenceTol {
			break
		}
		prevLoss = loss
	}

	return &Classifier{Classes: classes, Weights: weights}
}

// Probabilities returns the class distribution for one document
// vector, in the order of Classes.
func (c *Classifier) Probabilities(doc docVector) []float64 {
	probs := make([]float64, len(c.Classes))
	softmaxInto(probs, c.Weights, doc, len(c.Weights[0])-1)
	return probs
}

// Predict returns the arg-max class and its probability.
func (c *Classifier) Predict(doc docVector) (string, float64) {
	probs := c.Probabilities(doc)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return c.Classes[best], probs[best]
}

// softmaxInto fills out with softmax(weights · doc) using the usual
// max-shift for numeric stability. biasIndex is the feature dimension.
func softmaxInto(out []float64, weights [][]float64, doc docVector, biasIndex int) {
	maxScore := math.Inf(-1)
	for c := range weights {
		score := weights[c][biasIndex]
		for _, f := range doc {
			score += weights[c][f.index] * f.value
		}
		out[c] = score
		if score > maxScore {
			maxScore = score
		}
	}

	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxScore)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}
