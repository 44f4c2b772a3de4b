package app

import (
	"sync"
	"time"

	"assessment-service/internal/answer"
	"assessment-service/internal/branching"
	"assessment-service/internal/domain"
	"assessment-service/internal/schema"
)

// Attempt is one respondent's in-progress pass through an assessment. It owns
// the answer map until submission, after which the map is frozen.
type Attempt struct {
	id           string
	assessmentID string
	startedAt    time.Time

	mu          sync.RWMutex
	answers     answer.Map
	schema      *schema.Validated
	submitted   bool
	subscribers map[chan domain.Progress]struct{}
}

// NewAttempt is exported for infrastructure layers that create or restore attempts.
func NewAttempt(id, assessmentID string) *Attempt {
	return NewAttemptWithClock(id, assessmentID, time.Now)
}

// NewAttemptWithClock allows deterministic timestamps in tests.
func NewAttemptWithClock(id, assessmentID string, now func() time.Time) *Attempt {
	return &Attempt{
		id:           id,
		assessmentID: assessmentID,
		startedAt:    now(),
		answers:      answer.Map{},
		subscribers:  make(map[chan domain.Progress]struct{}),
	}
}

func (a *Attempt) ID() string           { return a.id }
func (a *Attempt) AssessmentID() string { return a.assessmentID }
func (a *Attempt) StartedAt() time.Time { return a.startedAt }

// Answers returns a copy of the current answer map.
func (a *Attempt) Answers() answer.Map {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.answers.Clone()
}

// Restore replaces the answer map, used when reloading an attempt from a store.
func (a *Attempt) Restore(answers answer.Map) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.answers = answers.Clone()
}

// IsSubmitted reports whether the answer map is frozen.
func (a *Attempt) IsSubmitted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.submitted
}

// bind attaches the compiled schema progress is computed against.
func (a *Attempt) bind(v *schema.Validated) domain.Progress {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schema = v
	return a.broadcastLocked()
}

// use swaps the compiled schema without notifying subscribers.
func (a *Attempt) use(v *schema.Validated) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.schema = v
}

// set records or clears one answer.
func (a *Attempt) set(questionID string, value any) (domain.Progress, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.submitted {
		return domain.Progress{}, domain.ErrAttemptSubmitted
	}
	if value == nil {
		delete(a.answers, questionID)
	} else {
		a.answers[questionID] = value
	}
	return a.broadcastLocked(), nil
}

// freeze marks the attempt submitted and returns the final answers.
func (a *Attempt) freeze() (answer.Map, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted {
		return nil, domain.ErrAttemptSubmitted
	}
	a.submitted = true
	return a.answers.Clone(), nil
}

// thaw reopens an attempt whose result could not be stored.
func (a *Attempt) thaw() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.submitted = false
}

// finish broadcasts the submitted state and closes every subscription.
func (a *Attempt) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.broadcastLocked()
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}

func (a *Attempt) subscribe() (<-chan domain.Progress, func()) {
	ch := make(chan domain.Progress, 8)

	a.mu.Lock()
	ch <- a.snapshotLocked()
	if a.submitted {
		close(ch)
		a.mu.Unlock()
		return ch, func() {}
	}
	a.subscribers[ch] = struct{}{}
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) broadcastLocked() domain.Progress {
	p := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- p:
		default:
			// Drop the stale snapshot so a slow observer never blocks answering.
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
	return p
}

func (a *Attempt) snapshotLocked() domain.Progress {
	p := domain.Progress{
		AttemptID:    a.id,
		AssessmentID: a.assessmentID,
		Visible:      []string{},
		Missing:      []string{},
		Answered:     len(a.answers),
		Submitted:    a.submitted,
	}
	if a.schema == nil {
		return p
	}
	p.Visible = branching.VisibleIDs(a.schema, a.answers)
	p.Missing = branching.MissingRequired(a.schema, a.answers)
	if next, ok := branching.Next(a.schema, a.answers); ok {
		p.Next = next.ID
	}
	p.Complete = len(p.Missing) == 0
	return p
}
