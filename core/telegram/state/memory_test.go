package state

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreCopiesSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(0, func() time.Time { return now })

	sess := NewSession("await_email", now)
	sess.Data["email"] = "a@b.co"
	if err := store.Put(ctx, 42, sess); err != nil {
		t.Fatalf("put: %v", err)
	}
	sess.Data["email"] = "mutated"

	got, ok, err := store.Get(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Data["email"] != "a@b.co" {
		t.Fatalf("stored session leaked caller mutation: %q", got.Data["email"])
	}
	got.State = "await_secret"

	again, _, _ := store.Get(ctx, 42)
	if again.State != "await_email" {
		t.Fatalf("state = %q, want await_email", again.State)
	}
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := newMemoryStore(time.Hour, func() time.Time { return clock })

	if err := store.Put(ctx, 1, NewSession("await_email", now)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, 2, NewSession("await_email", now.Add(90*time.Minute))); err != nil {
		t.Fatalf("put: %v", err)
	}

	clock = now.Add(59 * time.Minute)
	if _, ok, _ := store.Get(ctx, 1); !ok {
		t.Fatal("session expired too early")
	}

	clock = now.Add(2 * time.Hour)
	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatal("expected idle session to be treated as absent")
	}
	if n, _ := store.Sweep(ctx); n != 0 {
		t.Fatalf("sweep removed %d, want 0", n)
	}
	clock = now.Add(4 * time.Hour)
	if n, _ := store.Sweep(ctx); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	if err := store.Put(ctx, 7, NewSession("await_proof", time.Now())); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, 7); ok {
		t.Fatal("session survived delete")
	}
	if err := store.Delete(ctx, 7); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
