// Package relay follows the transaction store's snapshot stream and
// publishes per-transaction change events to RabbitMQ, so downstream
// consumers can track the ledger without their own store subscription.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
	"tally/internal/store"
)

// ChangePublisher is the outbound port; Publisher implements it on
// RabbitMQ, tests substitute a recorder.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev ChangeEvent) error
}

type Relay struct {
	store store.Store
	pub   ChangePublisher
	now   func() time.Time
	ready chan struct{}
}

func New(st store.Store, pub ChangePublisher) *Relay {
	return &Relay{store: st, pub: pub, now: time.Now, ready: make(chan struct{})}
}

// Ready is closed once the baseline snapshot has been consumed and the
// relay is publishing changes. Used for readiness reporting.
func (r *Relay) Ready() <-chan struct{} { return r.ready }

// Run subscribes to the store and publishes the diff of every pair of
// consecutive snapshots until ctx is done or the stream ends. Publish
// failures are logged and skipped; the store stays the source of truth
// and the next snapshot re-derives the current state.
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.store.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to store: %w", err)
	}
	defer sub.Close()

	slog.InfoContext(ctx, "Relay started")

	var prev store.Snapshot
	first := true
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Relay stopping", "reason", ctx.Err())
			return ctx.Err()
		case snap, open := <-sub.Updates():
			if !open {
				if err := sub.Err(); err != nil {
					return fmt.Errorf("snapshot stream: %w", err)
				}
				return nil
			}
			if first {
				// The initial snapshot is the baseline, not a change.
				prev, first = snap, false
				close(r.ready)
				continue
			}
			observed := r.now()
			for _, ev := range Diff(prev, snap, observed) {
				if err := r.pub.PublishChange(ctx, ev); err != nil {
					slog.ErrorContext(ctx, "Publish change failed",
						"op", ev.Op,
						"transaction_id", ev.ID,
						"error", err)
				}
			}
			prev = snap
		}
	}
}

// Diff derives change events from two consecutive snapshots, keyed by
// id: rows only in next are creations, rows only in prev are
// deletions, rows in both with a different caption or amount are
// updates. Creations and updates come out in snapshot order,
// deletions last.
func Diff(prev, next store.Snapshot, observed time.Time) []ChangeEvent {
	prevByID := make(map[string]core.Transaction, len(prev))
	for _, tx := range prev {
		prevByID[tx.ID] = tx
	}

	var events []ChangeEvent
	seen := make(map[string]struct{}, len(next))
	for _, tx := range next {
		seen[tx.ID] = struct{}{}
		old, ok := prevByID[tx.ID]
		if !ok {
			events = append(events, newChangeEvent(OpCreated, tx, observed))
			continue
		}
		if old.Caption != tx.Caption || old.Amount != tx.Amount {
			events = append(events, newChangeEvent(OpUpdated, tx, observed))
		}
	}
	for _, tx := range prev {
		if _, ok := seen[tx.ID]; !ok {
			events = append(events, newChangeEvent(OpDeleted, tx, observed))
		}
	}
	return events
}
