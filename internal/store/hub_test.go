package store

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
)

func snap(ids ...string) Snapshot {
	s := make(Snapshot, len(ids))
	for i, id := range ids {
		s[i] = core.Transaction{ID: id}
	}
	return s
}

func TestHubInitialSnapshot(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(context.Background(), snap("a", "b"))
	defer sub.Close()

	select {
	case got := <-sub.Updates():
		if len(got) != 2 {
			t.Fatalf("expected initial snapshot of 2, got %d", len(got))
		}
	case <-time.After(time.Second):
		t.Fatal("initial snapshot not delivered")
	}
}

func TestHubBroadcastConflates(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(context.Background(), snap())
	defer sub.Close()

	// Do not consume the initial snapshot; pile up broadcasts. Only the
	// newest survives.
	h.Broadcast(snap("a"))
	h.Broadcast(snap("a", "b"))
	h.Broadcast(snap("a", "b", "c"))

	select {
	case got := <-sub.Updates():
		if len(got) != 3 {
			t.Fatalf("expected latest snapshot of 3, got %d", len(got))
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot not delivered")
	}
}

func TestHubCloseStopsDelivery(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(context.Background(), snap())
	<-sub.Updates()

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	h.Broadcast(snap("a"))

	if _, open := <-sub.Updates(); open {
		t.Fatal("expected updates channel closed after Close")
	}
	if err := sub.Err(); err != nil {
		t.Fatalf("expected nil Err after clean close, got %v", err)
	}
	// Closing twice is a no-op.
	if err := sub.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestHubContextCancelTearsDown(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	sub := h.Subscribe(ctx, snap())
	<-sub.Updates()

	cancel()

	select {
	case _, open := <-sub.Updates():
		if open {
			t.Fatal("expected channel closed after context cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not torn down on context cancel")
	}
}
