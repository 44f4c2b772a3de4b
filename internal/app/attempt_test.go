package app

import (
	"testing"
	"time"

	"assessment-service/internal/answer"
	"assessment-service/internal/domain"
)

func TestAttemptRestoreAndFreeze(t *testing.T) {
	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	a := NewAttemptWithClock("a1", "mood-check", func() time.Time { return started })
	if !a.StartedAt().Equal(started) {
		t.Fatalf("expected start %v, got %v", started, a.StartedAt())
	}

	restored := answer.Map{"interest": 2.0}
	a.Restore(restored)
	restored["mood"] = 1.0
	if a.Answers().Has("mood") {
		t.Fatalf("expected restore to copy the answer map")
	}

	if _, err := a.freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if _, err := a.set("mood", 1.0); err != domain.ErrAttemptSubmitted {
		t.Fatalf("expected submitted error, got %v", err)
	}
	if _, err := a.freeze(); err != domain.ErrAttemptSubmitted {
		t.Fatalf("expected second freeze to fail, got %v", err)
	}

	a.thaw()
	p, err := a.set("mood", nil)
	if err != nil {
		t.Fatalf("set after thaw: %v", err)
	}
	if p.Answered != 1 || len(p.Visible) != 0 {
		t.Fatalf("expected unbound progress with one answer, got %+v", p)
	}
}

func TestSubscribeAfterFinishReceivesFinalSnapshot(t *testing.T) {
	a := NewAttempt("a1", "mood-check")
	if _, err := a.freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	a.finish()

	ch, cancel := a.subscribe()
	defer cancel()

	p, ok := <-ch
	if !ok || !p.Submitted {
		t.Fatalf("expected submitted snapshot, got %+v (open=%v)", p, ok)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after the final snapshot")
	}
}

func TestSubscribeRacingFinish(t *testing.T) {
	for i := 0; i < 200; i++ {
		a := NewAttempt("a1", "mood-check")
		done := make(chan struct{})
		go func() {
			defer close(done)
			ch, cancel := a.subscribe()
			defer cancel()
			for range ch {
			}
		}()
		if _, err := a.freeze(); err != nil {
			t.Fatalf("freeze: %v", err)
		}
		a.finish()
		<-done
	}
}
