package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// artifactFile is the single on-disk artifact. Saving replaces the
// previously active model wholesale; two admins training at once race
// on it and the last writer wins.
const artifactFile = "sentiment_model.json"

// Repository persists the active TrainedModel under a data directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository rooted at dir/models.
func NewRepository(dataDir string) *Repository {
	return &Repository{dir: filepath.Join(dataDir, "models")}
}

// Path returns the artifact location, whether or not it exists yet.
func (r *Repository) Path() string {
	return filepath.Join(r.dir, artifactFile)
}

// Save writes m as the active model. The write goes through a temp
// file and rename so a concurrent Load never observes a torn artifact.
func (r *Repository) Save(m *TrainedModel) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating models directory: %w", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding model: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, artifactFile+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing artifact: %w", err)
	}

	path := r.Path()
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("activating artifact: %w", err)
	}
	return path, nil
}

// Load reads the active model, or ErrNotLoaded when none has been
// trained yet.
func (r *Repository) Load() (*TrainedModel, error) {
	data, err := os.ReadFile(r.Path())
	if os.IsNotExist(err) {
		return nil, ErrNotLoaded
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	var m TrainedModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding artifact: %w", err)
	}
	if m.Vectorizer == nil || m.Classifier == nil {
		return nil, fmt.Errorf("artifact %s is incomplete", r.Path())
	}
	return &m, nil
}
