package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/feedlens/feedlens/internal/dataset"
	"github.com/feedlens/feedlens/internal/normalize"
)

func loadDataset(t *testing.T, lines ...string) *dataset.Dataset {
	t.Helper()
	d, err := dataset.FromCSV(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return d
}

// toyDataset is 12 clearly separable rows: 6 positive, 6 negative.
func toyDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	lines := []string{"text,sentiment"}
	for i := 0; i < 6; i++ {
		lines = append(lines, "good product,positive")
	}
	for i := 0; i < 6; i++ {
		lines = append(lines, "bad product,negative")
	}
	return loadDataset(t, lines...)
}

func TestTrain_EndToEnd(t *testing.T) {
	m, eval, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if eval.Accuracy < 0.5 {
		t.Errorf("accuracy = %g, want >= 0.5 on separable toy data", eval.Accuracy)
	}
	if eval.TrainRows+eval.TestRows != 12 {
		t.Errorf("train %d + test %d rows, want 12 total", eval.TrainRows, eval.TestRows)
	}

	p := m.Predict("good product")
	if p.Label != "positive" {
		t.Errorf("Predict(good product).Label = %q, want positive", p.Label)
	}
	if p.Probabilities["positive"] < p.Probabilities["negative"] {
		t.Errorf("positive probability %g below negative %g", p.Probabilities["positive"], p.Probabilities["negative"])
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		t.Errorf("confidence %g out of [0,1]", p.Confidence)
	}
}

func TestTrain_Deterministic(t *testing.T) {
	m1, e1, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	m2, e2, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("second train: %v", err)
	}

	if e1.Accuracy != e2.Accuracy {
		t.Errorf("accuracy differs across identical trains: %g vs %g", e1.Accuracy, e2.Accuracy)
	}
	if len(m1.Vectorizer.Vocabulary) != len(m2.Vectorizer.Vocabulary) {
		t.Fatalf("vocabulary sizes differ: %d vs %d", len(m1.Vectorizer.Vocabulary), len(m2.Vectorizer.Vocabulary))
	}
	for tok, idx := range m1.Vectorizer.Vocabulary {
		if m2.Vectorizer.Vocabulary[tok] != idx {
			t.Errorf("vocabulary entry %q differs across identical trains", tok)
		}
	}
}

func TestTrain_NormalizationParity(t *testing.T) {
	m, _, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Predict must see exactly normalize.Text(raw): a noisy variant of a
	// training phrase scores identically to its normalized form.
	raw := "GOOD product!!! #good http://spam.example"
	if got, want := m.Predict(raw), m.Predict(normalize.Text(raw)); got.Label != want.Label || got.Confidence != want.Confidence {
		t.Errorf("raw and pre-normalized input diverge: %+v vs %+v", got, want)
	}
}

func TestTrain_SingleClass(t *testing.T) {
	lines := []string{"text,sentiment"}
	for i := 0; i < 12; i++ {
		lines = append(lines, "good product,positive")
	}
	_, _, err := Train(loadDataset(t, lines...), "text", "sentiment", TrainerOptions{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("got error %v, want ErrInsufficientData", err)
	}
}

func TestTrain_TooFewRows(t *testing.T) {
	d := loadDataset(t,
		"text,sentiment",
		"good product,positive",
		"bad product,negative",
	)
	_, _, err := Train(d, "text", "sentiment", TrainerOptions{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("got error %v, want ErrInsufficientData", err)
	}
}

func TestTrain_DropsUnusableRows(t *testing.T) {
	lines := []string{"text,sentiment"}
	for i := 0; i < 6; i++ {
		lines = append(lines, fmt.Sprintf("good item number %d,positive", i))
	}
	for i := 0; i < 6; i++ {
		lines = append(lines, fmt.Sprintf("bad item number %d,negative", i))
	}
	lines = append(lines,
		"123 456,positive", // normalizes to empty
		"fine product,",    // missing label
	)

	_, eval, err := Train(loadDataset(t, lines...), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", eval.Dropped)
	}
}

func TestTrain_UnknownColumn(t *testing.T) {
	_, _, err := Train(toyDataset(t), "no_such_column", "sentiment", TrainerOptions{})
	if !errors.Is(err, dataset.ErrColumnNotFound) {
		t.Errorf("got error %v, want ErrColumnNotFound", err)
	}
}

func TestEvaluation_PerClassMetrics(t *testing.T) {
	_, eval, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(eval.Classes) != 2 {
		t.Fatalf("got %d class metrics, want 2", len(eval.Classes))
	}
	support := 0
	for _, cm := range eval.Classes {
		if cm.Precision < 0 || cm.Precision > 1 || cm.Recall < 0 || cm.Recall > 1 || cm.F1 < 0 || cm.F1 > 1 {
			t.Errorf("class %s metrics out of range: %+v", cm.Class, cm)
		}
		support += cm.Support
	}
	if support != eval.TestRows {
		t.Errorf("class supports sum to %d, want %d test rows", support, eval.TestRows)
	}
}
