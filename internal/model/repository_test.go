package model

import (
	"errors"
	"testing"
)

func TestRepository_SaveLoadRoundTrip(t *testing.T) {
	m, _, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("training: %v", err)
	}

	repo := NewRepository(t.TempDir())
	if _, err := repo.Save(m); err != nil {
		t.Fatalf("saving: %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}

	// The restored pair must score identically to the in-memory one.
	for _, text := range []string{"good product", "bad product", "mystery gadget"} {
		a, b := m.Predict(text), loaded.Predict(text)
		if a.Label != b.Label || a.Confidence != b.Confidence {
			t.Errorf("Predict(%q) diverges after reload: %+v vs %+v", text, a, b)
		}
	}
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := NewRepository(t.TempDir())
	if _, err := repo.Load(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("got error %v, want ErrNotLoaded", err)
	}
}

func TestRepository_LastWriteWins(t *testing.T) {
	first, _, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{})
	if err != nil {
		t.Fatalf("training: %v", err)
	}
	second, _, err := Train(toyDataset(t), "text", "sentiment", TrainerOptions{MaxIterations: 5})
	if err != nil {
		t.Fatalf("training: %v", err)
	}

	repo := NewRepository(t.TempDir())
	if _, err := repo.Save(first); err != nil {
		t.Fatalf("saving first: %v", err)
	}
	if _, err := repo.Save(second); err != nil {
		t.Fatalf("saving second: %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if !loaded.TrainedAt.Equal(second.TrainedAt) {
		t.Errorf("loaded TrainedAt %v, want the later save %v", loaded.TrainedAt, second.TrainedAt)
	}
}
