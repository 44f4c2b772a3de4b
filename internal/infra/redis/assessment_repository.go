package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"assessment-service/internal/domain"
)

// AssessmentStore is the durable home of assessments (document DB, Postgres, etc).
type AssessmentStore interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
	StoreAssessment(ctx context.Context, assessment domain.Assessment) error
}

// AssessmentRepository caches assessment documents in Redis and falls back to
// the store on a miss. Each assessment is cached as JSON under assessment:{id}.
type AssessmentRepository struct {
	client *redis.Client
	store  AssessmentStore
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewAssessmentRepository(client *redis.Client, store AssessmentStore, ttl time.Duration) *AssessmentRepository {
	return &AssessmentRepository{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	if a, ok := r.cached(ctx, assessmentID); ok {
		return a, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if a, ok := r.cached(ctx, assessmentID); ok {
			return a, nil
		}

		a, err := r.store.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}
		r.put(ctx, a)
		return a, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

// SaveAssessment writes through to the store, then replaces the cached copy.
func (r *AssessmentRepository) SaveAssessment(ctx context.Context, a domain.Assessment) error {
	if err := r.store.StoreAssessment(ctx, a); err != nil {
		return err
	}
	r.put(ctx, a)
	return nil
}

func (r *AssessmentRepository) cached(ctx context.Context, assessmentID string) (domain.Assessment, bool) {
	raw, err := r.client.Get(ctx, assessmentKey(assessmentID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("assessment cache read failed", zap.String("assessment_id", assessmentID), zap.Error(err))
		}
		return domain.Assessment{}, false
	}
	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		zap.L().Warn("dropping undecodable cached assessment", zap.String("assessment_id", assessmentID), zap.Error(err))
		_ = r.client.Del(ctx, assessmentKey(assessmentID)).Err()
		return domain.Assessment{}, false
	}
	return a, true
}

// put is best effort; a failed cache write only costs a later reload.
func (r *AssessmentRepository) put(ctx context.Context, a domain.Assessment) {
	raw, err := json.Marshal(a)
	if err != nil {
		zap.L().Warn("assessment cache encode failed", zap.String("assessment_id", a.ID), zap.Error(eris.Wrap(err, "marshal assessment")))
		return
	}
	if err := r.client.Set(ctx, assessmentKey(a.ID), raw, r.ttlWithJitter()).Err(); err != nil {
		zap.L().Warn("assessment cache write failed", zap.String("assessment_id", a.ID), zap.Error(err))
	}
}

func assessmentKey(assessmentID string) string {
	return "assessment:" + assessmentID
}

func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
