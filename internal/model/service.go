package model

import "sync"

// Service holds the active model in memory in front of the on-disk
// repository. Predictions read the cached model; a successful train
// persists and swaps it. Concurrent trains race on the artifact file
// and the last write wins.
type Service struct {
	repo *Repository

	mu  sync.RWMutex
	cur *TrainedModel
}

// NewService returns a Service over repo without touching disk.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Current returns the active model, loading it from the repository on
// first use. Returns ErrNotLoaded when no model has been trained yet.
func (s *Service) Current() (*TrainedModel, error) {
	s.mu.RLock()
	cur := s.cur
	s.mu.RUnlock()
	if cur != nil {
		return cur, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil {
		return s.cur, nil
	}
	m, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	s.cur = m
	return m, nil
}

// Replace persists m and makes it the active model. Returns the
// artifact path.
func (s *Service) Replace(m *TrainedModel) (string, error) {
	path, err := s.repo.Save(m)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.cur = m
	s.mu.Unlock()
	return path, nil
}
