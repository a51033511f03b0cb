// Package view holds the transaction list component: a live mirror of
// the store's collection with derived totals and the per-row edit
// state machine. One View is opened per consumer (one per SSE client
// in the web UI) and must be closed on teardown to release its store
// subscription.
package view

import (
	"context"
	"errors"
	"sync"

	"tally/internal/core"
	"tally/internal/store"
)

var (
	// ErrNotConfirmed gates deletes behind an explicit confirmation step.
	ErrNotConfirmed = errors.New("delete not confirmed")
	// ErrNotEditing reports a save with no edit in progress.
	ErrNotEditing = errors.New("no edit in progress")
	// ErrSaveInFlight prevents duplicate submission of a pending save.
	ErrSaveInFlight = errors.New("save already in flight")
)

// EditBuffer holds the raw caption/amount strings being edited. Amount
// stays a string until save so a half-typed value never touches the
// domain model.
type EditBuffer struct {
	Caption string
	Amount  string
}

type View struct {
	store store.Store
	sub   store.Subscription

	mu       sync.Mutex
	rows     store.Snapshot
	syncLost bool
	editing  string // id of the row in the editing state, "" when none
	buf      EditBuffer
	saving   bool

	changed chan struct{}
	done    chan struct{}
}

// Open subscribes to the store and starts mirroring its snapshots. The
// first snapshot is applied before Open returns, so Rows and Totals
// are immediately meaningful.
func Open(ctx context.Context, st store.Store) (*View, error) {
	sub, err := st.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	v := &View{
		store:   st,
		sub:     sub,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	select {
	case snap, open := <-sub.Updates():
		if open {
			v.rows = snap
		}
	case <-ctx.Done():
		sub.Close()
		return nil, ctx.Err()
	}

	go v.consume()
	return v, nil
}

// Close releases the store subscription. Safe to call more than once.
func (v *View) Close() error {
	return v.sub.Close()
}

// Changed signals snapshot (or sync-state) changes. The channel is
// conflating: a pending signal covers any number of updates.
func (v *View) Changed() <-chan struct{} { return v.changed }

// Done is closed when the underlying subscription ends.
func (v *View) Done() <-chan struct{} { return v.done }

// Rows returns the current snapshot, store order (createdAt desc).
func (v *View) Rows() []core.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	rows := make([]core.Transaction, len(v.rows))
	copy(rows, v.rows)
	return rows
}

// Totals recomputes the aggregates from the current snapshot.
func (v *View) Totals() core.Totals {
	v.mu.Lock()
	defer v.mu.Unlock()
	return core.Summarize(v.rows)
}

// SyncLost reports a failed subscription: the mirror may be stale and
// the UI should say so rather than present it silently.
func (v *View) SyncLost() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.syncLost
}

// StartEdit moves a row into the editing state, seeding the buffers
// from its current caption and amount. Only one row edits at a time;
// starting another edit abandons the previous buffers.
func (v *View) StartEdit(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	tx, ok := v.findLocked(id)
	if !ok {
		return store.ErrNotFound
	}
	v.editing = id
	v.buf = EditBuffer{
		Caption: tx.Caption,
		Amount:  core.FormatAmount(tx.Amount),
	}
	return nil
}

// Editing returns the id of the row in the editing state and its
// buffers, or ok=false when every row is viewing.
func (v *View) Editing() (id string, buf EditBuffer, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing == "" {
		return "", EditBuffer{}, false
	}
	return v.editing, v.buf, true
}

// SetBuffer replaces the edit buffers with what the user typed.
func (v *View) SetBuffer(buf EditBuffer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing != "" {
		v.buf = buf
	}
}

// CancelEdit discards the buffers unconditionally and returns the row
// to viewing. No store interaction.
func (v *View) CancelEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editing = ""
	v.buf = EditBuffer{}
}

// SaveEdit parses the buffers and issues the update. On success the
// row returns to viewing and the displayed values change only via the
// next snapshot, never optimistically. On failure the buffers remain
// and the row stays in editing so the user can correct and retry.
func (v *View) SaveEdit(ctx context.Context) error {
	v.mu.Lock()
	if v.editing == "" {
		v.mu.Unlock()
		return ErrNotEditing
	}
	if v.saving {
		v.mu.Unlock()
		return ErrSaveInFlight
	}
	id := v.editing
	buf := v.buf
	v.saving = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.saving = false
		v.mu.Unlock()
	}()

	amount, err := core.ParseAmount(buf.Amount)
	if err != nil {
		return err
	}
	patch := core.Patch{Caption: buf.Caption, Amount: amount}
	if err := patch.Validate(); err != nil {
		return err
	}
	if err := v.store.Update(ctx, id, patch); err != nil {
		return err
	}

	v.mu.Lock()
	if v.editing == id {
		v.editing = ""
		v.buf = EditBuffer{}
	}
	v.mu.Unlock()
	return nil
}

// Delete removes a transaction. It refuses without the explicit
// confirmation flag, and a confirmed delete always proceeds even while
// an edit is mid-flight. Irreversible; no undo.
func (v *View) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return v.store.Delete(ctx, id)
}

func (v *View) consume() {
	for snap := range v.sub.Updates() {
		v.mu.Lock()
		v.rows = snap
		v.mu.Unlock()
		v.notify()
	}
	if err := v.sub.Err(); err != nil {
		v.mu.Lock()
		v.syncLost = true
		v.mu.Unlock()
		v.notify()
	}
	close(v.done)
}

func (v *View) notify() {
	select {
	case v.changed <- struct{}{}:
	default:
	}
}

func (v *View) findLocked(id string) (core.Transaction, bool) {
	for _, tx := range v.rows {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
