package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"assessment-service/internal/answer"
	"assessment-service/internal/app"
)

// AttemptStore is a Redis-backed implementation of app.AttemptRepository.
// Notes:
//   - Live attempts stay in a local map so subscribers share one in-process
//     broadcast.
//   - Answers are mirrored to Redis so an attempt survives a restart:
//     SET  attempt:{id}:assessment {assessmentID}
//     HSET attempt:{id}:answers {questionID} {json value}
//   - Both keys expire ttl after the last write.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(ctx context.Context, attemptID, assessmentID string) (*app.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[attemptID]; ok {
		return attempt, nil
	}

	attempt, err := s.restore(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		attempt = app.NewAttempt(attemptID, assessmentID)
		if err := s.client.Set(ctx, assessmentOfKey(attemptID), assessmentID, s.ttl).Err(); err != nil {
			return nil, eris.Wrapf(err, "redis: create attempt %s", attemptID)
		}
	}
	s.attempts[attemptID] = attempt
	return attempt, nil
}

// Get returns a live attempt, restoring it from Redis when this process has
// not seen it yet.
func (s *AttemptStore) Get(ctx context.Context, attemptID string) (*app.Attempt, bool) {
	s.mu.RLock()
	attempt, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if ok {
		return attempt, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if attempt, ok := s.attempts[attemptID]; ok {
		return attempt, true
	}
	attempt, err := s.restore(ctx, attemptID)
	if err != nil {
		zap.L().Warn("attempt restore failed", zap.String("attempt_id", attemptID), zap.Error(err))
		return nil, false
	}
	if attempt == nil {
		return nil, false
	}
	s.attempts[attemptID] = attempt
	return attempt, true
}

// Record mirrors one answer change. A nil value removes the answer.
func (s *AttemptStore) Record(ctx context.Context, attemptID, questionID string, value any) error {
	key := answersKey(attemptID)
	pipe := s.client.TxPipeline()
	if value == nil {
		pipe.HDel(ctx, key, questionID)
	} else {
		raw, err := json.Marshal(value)
		if err != nil {
			return eris.Wrapf(err, "redis: encode answer %s", questionID)
		}
		pipe.HSet(ctx, key, questionID, raw)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
		pipe.Expire(ctx, assessmentOfKey(attemptID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrapf(err, "redis: record answer %s", questionID)
	}
	return nil
}

func (s *AttemptStore) Delete(ctx context.Context, attemptID string) {
	s.mu.Lock()
	delete(s.attempts, attemptID)
	s.mu.Unlock()
	if err := s.client.Del(ctx, answersKey(attemptID), assessmentOfKey(attemptID)).Err(); err != nil {
		zap.L().Warn("attempt cleanup failed", zap.String("attempt_id", attemptID), zap.Error(err))
	}
}

// restore rebuilds an attempt from Redis. It returns nil when Redis has no
// record of attemptID.
func (s *AttemptStore) restore(ctx context.Context, attemptID string) (*app.Attempt, error) {
	assessmentID, err := s.client.Get(ctx, assessmentOfKey(attemptID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: load attempt %s", attemptID)
	}

	fields, err := s.client.HGetAll(ctx, answersKey(attemptID)).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: load answers %s", attemptID)
	}
	answers := make(answer.Map, len(fields))
	for questionID, raw := range fields {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			zap.L().Warn("skipping undecodable answer",
				zap.String("attempt_id", attemptID),
				zap.String("question_id", questionID),
				zap.Error(err),
			)
			continue
		}
		answers[questionID] = v
	}

	attempt := app.NewAttempt(attemptID, assessmentID)
	attempt.Restore(answers)
	return attempt, nil
}

func answersKey(attemptID string) string {
	return "attempt:" + attemptID + ":answers"
}

func assessmentOfKey(attemptID string) string {
	return "attempt:" + attemptID + ":assessment"
}
