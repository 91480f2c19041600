package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"socratic/internal/models"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := models.NewQuestionSession("s-1", time.Now())
	sess.Turn = 3
	sess.Requirements["clarifying"] = []string{"needs HIPAA compliance"}

	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	loaded, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.Turn != 3 {
		t.Errorf("Expected turn 3, got %d", loaded.Turn)
	}
	if got := loaded.Requirements["clarifying"]; len(got) != 1 || got[0] != "needs HIPAA compliance" {
		t.Errorf("Requirements did not round-trip: %v", got)
	}
}

func TestMemoryStore_StoredStateIsIsolated(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	sess := models.NewQuestionSession("s-1", time.Now())
	store.Put(ctx, sess)

	// Mutating the caller's copy after Put must not affect stored state.
	sess.Turn = 99

	loaded, err := store.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.Turn != 0 {
		t.Errorf("Stored state was mutated through a shared pointer: turn = %d", loaded.Turn)
	}
}

func TestMemoryStore_MissingSession(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryStore_IdleExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	sess := models.NewQuestionSession("s-1", now)
	store.Put(ctx, sess)

	// Still alive just inside the idle window.
	now = now.Add(59 * time.Second)
	if _, err := store.Get(ctx, "s-1"); err != nil {
		t.Fatalf("Expected session to be alive, got %v", err)
	}

	// Gone once the idle window passes.
	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected idle session to expire, got %v", err)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	store.Put(ctx, models.NewQuestionSession("s-1", time.Now()))
	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "s-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected deleted session to be gone, got %v", err)
	}
	// Deleting again is not an error.
	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
}
