package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/store"
	"tally/internal/store/memory"
)

func tx(id, caption string, amount float64, typ core.Type) core.Transaction {
	return core.Transaction{ID: id, Caption: caption, Amount: amount, Type: typ}
}

func TestDiff(t *testing.T) {
	observed := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	prev := store.Snapshot{
		tx("a", "Salary", 5000, core.Income),
		tx("b", "Rent", 800, core.Expense),
		tx("c", "Coffee", 3.5, core.Expense),
	}
	next := store.Snapshot{
		tx("d", "Consulting", 1200, core.Income), // created
		tx("a", "Salary", 5000, core.Income),     // unchanged
		tx("b", "Rent", 850, core.Expense),       // updated
		// c deleted
	}

	events := Diff(prev, next, observed)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}

	byOp := map[string]ChangeEvent{}
	for _, ev := range events {
		byOp[ev.Op] = ev
	}
	if ev := byOp[OpCreated]; ev.ID != "d" || ev.Caption != "Consulting" || ev.Amount != 1200 {
		t.Fatalf("unexpected created event: %+v", ev)
	}
	if ev := byOp[OpUpdated]; ev.ID != "b" || ev.Amount != 850 {
		t.Fatalf("unexpected updated event: %+v", ev)
	}
	if ev := byOp[OpDeleted]; ev.ID != "c" || ev.Caption != "" {
		t.Fatalf("deleted event should carry only the id: %+v", ev)
	}
	for _, ev := range events {
		if !ev.Observed.Equal(observed) {
			t.Fatalf("expected observed %v, got %v", observed, ev.Observed)
		}
	}
}

func TestDiffNoChanges(t *testing.T) {
	snap := store.Snapshot{tx("a", "Salary", 5000, core.Income)}
	if events := Diff(snap, snap, time.Now()); len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

func TestDiffCaptionOnlyEdit(t *testing.T) {
	prev := store.Snapshot{tx("a", "Fuel", 100, core.Expense)}
	next := store.Snapshot{tx("a", "Diesel", 100, core.Expense)}
	events := Diff(prev, next, time.Now())
	if len(events) != 1 || events[0].Op != OpUpdated {
		t.Fatalf("expected one update, got %+v", events)
	}
}

// recorder collects published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *recorder) PublishChange(_ context.Context, ev ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) snapshot() []ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ChangeEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestRelayPublishesMutations(t *testing.T) {
	s := memory.New()
	defer s.Close()

	rec := &recorder{}
	r := New(s, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Wait for the baseline snapshot, then mutate.
	select {
	case <-r.Ready():
	case <-time.After(time.Second):
		t.Fatal("relay never became ready")
	}
	id, err := s.Create(ctx, core.Draft{Caption: "Salary", Amount: 5000, Type: core.Income})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	waitFor(t, func() bool {
		evs := rec.snapshot()
		return len(evs) == 1 && evs[0].Op == OpCreated && evs[0].ID == id
	})

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	waitFor(t, func() bool {
		evs := rec.snapshot()
		return len(evs) == 2 && evs[1].Op == OpDeleted && evs[1].ID == id
	})

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestChangeEventRoundTrip(t *testing.T) {
	ev := newChangeEvent(OpCreated, core.Transaction{
		ID:        "a",
		Caption:   "Salary",
		Amount:    5000,
		Type:      core.Income,
		CreatedAt: core.NewTimestamp(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)),
	}, time.Date(2026, 4, 1, 10, 0, 1, 0, time.UTC))

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := ChangeEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != ev {
		t.Fatalf("expected %+v, got %+v", ev, got)
	}
}
