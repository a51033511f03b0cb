package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/store"
)

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func mustCreate(t *testing.T, s *Store, caption string, amount float64, typ core.Type) string {
	t.Helper()
	id, err := s.Create(context.Background(), core.Draft{Caption: caption, Amount: amount, Type: typ})
	if err != nil {
		t.Fatalf("create %s: %v", caption, err)
	}
	return id
}

func nextSnapshot(t *testing.T, sub store.Subscription) store.Snapshot {
	t.Helper()
	select {
	case snap, open := <-sub.Updates():
		if !open {
			t.Fatal("updates channel closed")
		}
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	return nil
}

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	s := NewWithClock(tick())
	defer s.Close()

	id := mustCreate(t, s, "Salary", 5000, core.Income)
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	sub, err := s.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	snap := nextSnapshot(t, sub)
	if len(snap) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(snap))
	}
	tx := snap[0]
	if tx.ID != id || tx.Caption != "Salary" || tx.Amount != 5000 || tx.Type != core.Income {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if tx.CreatedAt.Pending() {
		t.Fatal("memory store assigns timestamps at create; none should be pending")
	}
	if got := tx.Type.Sign() + core.FormatAmount(tx.Amount); got != "+5000.00" {
		t.Fatalf("expected +5000.00, got %q", got)
	}
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	s := New()
	defer s.Close()

	_, err := s.Create(context.Background(), core.Draft{Caption: "", Amount: 1, Type: core.Income})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSnapshotOrderedNewestFirst(t *testing.T) {
	s := NewWithClock(tick())
	defer s.Close()

	mustCreate(t, s, "first", 1, core.Expense)
	mustCreate(t, s, "second", 2, core.Expense)
	mustCreate(t, s, "third", 3, core.Expense)

	sub, _ := s.Subscribe(context.Background())
	defer sub.Close()

	snap := nextSnapshot(t, sub)
	want := []string{"third", "second", "first"}
	for i, w := range want {
		if snap[i].Caption != w {
			t.Fatalf("position %d: expected %q, got %q", i, w, snap[i].Caption)
		}
	}
}

func TestUpdateRewritesCaptionAndAmount(t *testing.T) {
	s := NewWithClock(tick())
	defer s.Close()

	id := mustCreate(t, s, "Fuel", 100, core.Expense)

	sub, _ := s.Subscribe(context.Background())
	defer sub.Close()
	before := nextSnapshot(t, sub)

	if err := s.Update(context.Background(), id, core.Patch{Caption: "Fuel (corrected)", Amount: 150}); err != nil {
		t.Fatalf("update: %v", err)
	}

	after := nextSnapshot(t, sub)
	if after[0].Caption != "Fuel (corrected)" || after[0].Amount != 150 {
		t.Fatalf("update not applied: %+v", after[0])
	}
	if !after[0].CreatedAt.Equal(before[0].CreatedAt.Time) {
		t.Fatal("createdAt must not change on update")
	}
	if after[0].Type != core.Expense {
		t.Fatal("type must not change on update")
	}

	delta := core.Summarize(after).Expense - core.Summarize(before).Expense
	if delta != 50 {
		t.Fatalf("expected expense delta +50, got %v", delta)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s := New()
	defer s.Close()

	err := s.Update(context.Background(), "missing", core.Patch{Caption: "x", Amount: 1})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTwice(t *testing.T) {
	s := NewWithClock(tick())
	defer s.Close()

	id := mustCreate(t, s, "Rent", 800, core.Expense)
	mustCreate(t, s, "Salary", 5000, core.Income)

	sub, _ := s.Subscribe(context.Background())
	defer sub.Close()
	before := nextSnapshot(t, sub)

	if err := s.Delete(context.Background(), id); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	after := nextSnapshot(t, sub)

	if len(after) != len(before)-1 {
		t.Fatalf("expected exactly one row removed, got %d -> %d", len(before), len(after))
	}
	if core.Summarize(before).Expense-core.Summarize(after).Expense != 800 {
		t.Fatal("expense total should drop by the deleted amount")
	}

	err := s.Delete(context.Background(), id)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
	// Totals unchanged by the failed delete.
	sub2, _ := s.Subscribe(context.Background())
	defer sub2.Close()
	if core.Summarize(nextSnapshot(t, sub2)) != core.Summarize(after) {
		t.Fatal("failed delete must not change totals")
	}
}

func TestSubscribePushesOnEveryMutation(t *testing.T) {
	s := NewWithClock(tick())
	defer s.Close()

	sub, _ := s.Subscribe(context.Background())
	defer sub.Close()

	if got := nextSnapshot(t, sub); len(got) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d", len(got))
	}

	id := mustCreate(t, s, "Coffee", 3.50, core.Expense)
	if got := nextSnapshot(t, sub); len(got) != 1 {
		t.Fatalf("expected snapshot after create, got %d rows", len(got))
	}

	_ = s.Update(context.Background(), id, core.Patch{Caption: "Coffee", Amount: 4})
	if got := nextSnapshot(t, sub); got[0].Amount != 4 {
		t.Fatalf("expected snapshot after update, got %+v", got[0])
	}

	_ = s.Delete(context.Background(), id)
	if got := nextSnapshot(t, sub); len(got) != 0 {
		t.Fatalf("expected empty snapshot after delete, got %d rows", len(got))
	}
}

func TestCloseTearsDownSubscriptions(t *testing.T) {
	s := New()
	sub, _ := s.Subscribe(context.Background())
	<-sub.Updates()

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, open := <-sub.Updates(); open {
		t.Fatal("expected subscription closed after store close")
	}
}
