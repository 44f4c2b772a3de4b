package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestAttemptStoreMirrorsAnswers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := newClient(mr)
	store := NewAttemptStore(client, time.Minute)

	if _, err := store.GetOrCreate(ctx, "a1", "mood-check"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got, _ := mr.Get("attempt:a1:assessment"); got != "mood-check" {
		t.Fatalf("expected assessment marker, got %q", got)
	}

	if err := store.Record(ctx, "a1", "interest", 2.0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, "a1", "notes", "tired"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, "a1", "notes", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := mr.HGet("attempt:a1:answers", "interest"); got != "2" {
		t.Fatalf("expected json answer, got %q", got)
	}
	if mr.TTL("attempt:a1:answers") != time.Minute {
		t.Fatalf("expected answers ttl refreshed")
	}

	// A fresh store (another process) restores the attempt from Redis.
	restarted := NewAttemptStore(client, time.Minute)
	attempt, ok := restarted.Get(ctx, "a1")
	if !ok {
		t.Fatalf("expected attempt restored")
	}
	if attempt.AssessmentID() != "mood-check" {
		t.Fatalf("expected assessment id restored, got %s", attempt.AssessmentID())
	}
	answers := attempt.Answers()
	if answers["interest"] != 2.0 || answers.Has("notes") {
		t.Fatalf("unexpected restored answers %v", answers)
	}

	restarted.Delete(ctx, "a1")
	if mr.Exists("attempt:a1:answers") || mr.Exists("attempt:a1:assessment") {
		t.Fatalf("expected redis keys removed")
	}
	if _, ok := restarted.Get(ctx, "a1"); ok {
		t.Fatalf("expected attempt gone")
	}
}
