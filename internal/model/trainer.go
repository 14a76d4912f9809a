// Package model implements the feedback classification pipeline: a
// deterministic TF-IDF vectorizer, a multinomial logistic-regression
// classifier, the trainer that fits both from a labeled dataset, and
// the predictor that scores new text against the fitted pair.
//
// Training and prediction share the identical text normalization
// (internal/normalize); that parity is what keeps served predictions
// consistent with the corpus the model was fitted on.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/feedlens/feedlens/internal/dataset"
	"github.com/feedlens/feedlens/internal/normalize"
)

// ErrInsufficientData is returned when, after cleaning, fewer than two
// sentiment classes or fewer than MinTrainingRows usable rows remain.
// Not retryable: the caller should surface a "small or imbalanced
// dataset" diagnostic instead of attempting remediation.
var ErrInsufficientData = errors.New("insufficient data to train")

// ErrNotLoaded is returned when prediction is requested and no trained
// artifacts are available. Surfaced to users as "train a model first".
var ErrNotLoaded = errors.New("no trained model loaded")

// MinTrainingRows is the minimum usable row count after cleaning; the
// 80/20 split needs at least one example on each side per class.
const MinTrainingRows = 10

// splitSeed fixes the train/test shuffle so identical input ordering
// reproduces identical splits, accuracy, and vocabulary.
const splitSeed = 42

// testFraction of rows held out for evaluation.
const testFraction = 0.2

// TrainerOptions tune the fitting process. The zero value uses the
// package defaults.
type TrainerOptions struct {
	MaxFeatures   int
	MaxIterations int
}

// TrainedModel is the paired vectorizer + classifier artifact produced
// by training and consumed by prediction. Persistence is the caller's
// concern (see Repository); last write wins, no versioning.
type TrainedModel struct {
	Vectorizer *Vectorizer `json:"vectorizer"`
	Classifier *Classifier `json:"classifier"`
	TrainedAt  time.Time   `json:"trained_at"`
	Accuracy   float64     `json:"accuracy"`
}

// ClassMetrics is the held-out evaluation of a single class.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes held-out performance. Accuracy is the raw
// number in [0,1]; qualitative thresholds are a presentation concern.
type Evaluation struct {
	Accuracy  float64        `json:"accuracy"`
	Classes   []ClassMetrics `json:"classes"`
	TrainRows int            `json:"train_rows"`
	TestRows  int            `json:"test_rows"`
	Dropped   int            `json:"dropped"`
}

// Train fits a TrainedModel from the named text and sentiment columns
// of d. Rows whose normalized text is empty or whose sentiment is
// missing are dropped before fitting. The trainer never persists
// anything and blocks until the fit converges or hits the iteration
// cap.
func Train(d *dataset.Dataset, textCol, sentimentCol string, opts TrainerOptions) (*TrainedModel, *Evaluation, error) {
	textColumn, err := d.Column(textCol)
	if err != nil {
		return nil, nil, fmt.Errorf("text column: %w", err)
	}
	sentimentColumn, err := d.Column(sentimentCol)
	if err != nil {
		return nil, nil, fmt.Errorf("sentiment column: %w", err)
	}

	var texts, labels []string
	for i := range textColumn.Values {
		cleaned := normalize.Text(textColumn.Values[i])
		label := sentimentColumn.Values[i]
		if cleaned == "" || label == "" {
			continue
		}
		texts = append(texts, cleaned)
		labels = append(labels, label)
	}
	dropped := len(textColumn.Values) - len(texts)

	distinct := make(map[string]struct{})
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil, nil, fmt.Errorf("%w: %d sentiment class(es) after cleaning, need at least 2", ErrInsufficientData, len(distinct))
	}
	if len(texts) < MinTrainingRows {
		return nil, nil, fmt.Errorf("%w: %d usable rows after cleaning, need at least %d", ErrInsufficientData, len(texts), MinTrainingRows)
	}

	trainIdx, testIdx := split(len(texts))

	trainTexts := make([]string, len(trainIdx))
	trainLabels := make([]string, len(trainIdx))
	for i, idx := range trainIdx {
		trainTexts[i] = texts[idx]
		trainLabels[i] = labels[idx]
	}

	vectorizer := fitVectorizer(trainTexts, opts.MaxFeatures)
	trainDocs := make([]docVector, len(trainTexts))
	for i, t := range trainTexts {
		trainDocs[i] = vectorizer.Transform(t)
	}
	classifier := fitClassifier(trainDocs, trainLabels, vectorizer.NumFeatures(), opts.MaxIterations)

	eval := evaluate(vectorizer, classifier, texts, labels, testIdx)
	eval.TrainRows = len(trainIdx)
	eval.Dropped = dropped

	m := &TrainedModel{
		Vectorizer: vectorizer,
		Classifier: classifier,
		TrainedAt:  time.Now().UTC(),
		Accuracy:   eval.Accuracy,
	}
	return m, eval, nil
}

// split shuffles row indices with the fixed seed and carves off the
// trailing testFraction as the held-out set.
func split(n int) (train, test []int) {
	rng := rand.New(rand.NewSource(splitSeed))
	perm := rng.Perm(n)

	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[:n-nTest], perm[n-nTest:]
}

// evaluate scores the held-out rows and aggregates accuracy plus
// per-class precision/recall/F1, classes in the classifier's sorted
// order.
func evaluate(v *Vectorizer, c *Classifier, texts, labels []string, testIdx []int) *Evaluation {
	classPos := make(map[string]int, len(c.Classes))
	for i, class := range c.Classes {
		classPos[class] = i
	}

	type counts struct{ tp, fp, fn, support int }
	perClass := make([]counts, len(c.Classes))

	correct := 0
	for _, idx := range testIdx {
		predicted, _ := c.Predict(v.Transform(texts[idx]))
		actual := labels[idx]

		if ai, ok := classPos[actual]; ok {
			perClass[ai].support++
		}
		if predicted == actual {
			correct++
			perClass[classPos[predicted]].tp++
			continue
		}
		if pi, ok := classPos[predicted]; ok {
			perClass[pi].fp++
		}
		if ai, ok := classPos[actual]; ok {
			perClass[ai].fn++
		}
	}

	eval := &Evaluation{
		Accuracy: float64(correct) / float64(len(testIdx)),
		TestRows: len(testIdx),
	}
	for i, class := range c.Classes {
		cc := perClass[i]
		m := ClassMetrics{Class: class, Support: cc.support}
		if cc.tp+cc.fp > 0 {
			m.Precision = float64(cc.tp) / float64(cc.tp+cc.fp)
		}
		if cc.tp+cc.fn > 0 {
			m.Recall = float64(cc.tp) / float64(cc.tp+cc.fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		eval.Classes = append(eval.Classes, m)
	}
	return eval
}
