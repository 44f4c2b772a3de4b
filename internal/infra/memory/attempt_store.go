package memory

import (
	"context"
	"sync"

	"assessment-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Answers live on the Attempt itself, so Record has nothing to persist.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(_ context.Context, attemptID, assessmentID string) (*app.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[attemptID]; ok {
		return attempt, nil
	}
	attempt := app.NewAttempt(attemptID, assessmentID)
	s.attempts[attemptID] = attempt
	return attempt, nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Record(context.Context, string, string, any) error {
	return nil
}

func (s *AttemptStore) Delete(_ context.Context, attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptID)
}
