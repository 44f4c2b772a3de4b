package memory

import (
	"context"
	"sync"

	"assessment-service/internal/domain"
)

// ResultStore keeps scored attempts in memory, keyed by attempt id.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.Result)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.AttemptID] = result
	return nil
}

// Result returns the stored result for an attempt.
func (s *ResultStore) Result(attemptID string) (domain.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[attemptID]
	return r, ok
}
