package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"assessment-service/internal/domain"
)

// AssessmentStore is the durable home of assessments (document DB, Postgres, etc).
type AssessmentStore interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
	StoreAssessment(ctx context.Context, assessment domain.Assessment) error
}

// AssessmentRepository caches assessments with TTL to avoid repeated store hits.
type AssessmentRepository struct {
	store AssessmentStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedAssessment
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

func NewAssessmentRepository(store AssessmentStore, ttl time.Duration) *AssessmentRepository {
	return &AssessmentRepository{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedAssessment),
	}
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	if a, ok := r.cached(assessmentID); ok {
		return a, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		if a, ok := r.cached(assessmentID); ok {
			return a, nil
		}

		a, err := r.store.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}
		r.put(a)
		return a, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

// SaveAssessment writes through to the store and refreshes the cached copy.
func (r *AssessmentRepository) SaveAssessment(ctx context.Context, a domain.Assessment) error {
	if err := r.store.StoreAssessment(ctx, a); err != nil {
		return err
	}
	r.put(a)
	return nil
}

func (r *AssessmentRepository) cached(assessmentID string) (domain.Assessment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[assessmentID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Assessment{}, false
	}
	return entry.assessment, true
}

func (r *AssessmentRepository) put(a domain.Assessment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[a.ID] = cachedAssessment{
		assessment: a,
		expiresAt:  r.clock().Add(r.ttlWithJitter()),
	}
}

// ttlWithJitter must be called with mu held; rand.Rand is not safe for concurrent use.
func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticAssessmentStore keeps assessments in a map (useful for tests/demos).
type StaticAssessmentStore struct {
	mu          sync.RWMutex
	assessments map[string]domain.Assessment
}

func NewStaticAssessmentStore(assessments map[string]domain.Assessment) *StaticAssessmentStore {
	seeded := make(map[string]domain.Assessment, len(assessments))
	for id, a := range assessments {
		seeded[id] = a
	}
	return &StaticAssessmentStore{assessments: seeded}
}

func (s *StaticAssessmentStore) LoadAssessment(_ context.Context, assessmentID string) (domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.assessments[assessmentID]; ok {
		return a, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

func (s *StaticAssessmentStore) StoreAssessment(_ context.Context, a domain.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.ID] = a
	return nil
}
