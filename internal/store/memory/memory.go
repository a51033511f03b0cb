// Package memory implements the transaction store in process memory.
// It is the default backend and the fake the tests substitute for the
// hosted store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	hub   *store.Hub
	now   func() time.Time
}

func New() *Store {
	return &Store{
		hub: store.NewHub(),
		now: time.Now,
	}
}

// NewWithClock fixes the timestamp source. Tests use it to make
// creation order deterministic.
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) Create(_ context.Context, d core.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	tx := core.Transaction{
		ID:        uuid.NewString(),
		Caption:   d.Caption,
		Amount:    d.Amount,
		Type:      d.Type,
		CreatedAt: core.NewTimestamp(s.now()),
	}
	s.items = append(s.items, tx)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.Broadcast(snap)
	return tx.ID, nil
}

func (s *Store) Update(_ context.Context, id string, p core.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	s.items[idx].Caption = p.Caption
	s.items[idx].Amount = p.Amount
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.Broadcast(snap)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.Broadcast(snap)
	return nil
}

func (s *Store) Subscribe(ctx context.Context) (store.Subscription, error) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return s.hub.Subscribe(ctx, snap), nil
}

func (s *Store) Close() error {
	s.hub.CloseAll()
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, tx := range s.items {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked copies the collection ordered by creation time
// descending, ties broken by insertion order (newest first).
func (s *Store) snapshotLocked() store.Snapshot {
	snap := make(store.Snapshot, len(s.items))
	for i, tx := range s.items {
		snap[len(s.items)-1-i] = tx
	}
	// snap is now newest-insert first; the stable sort keeps that order
	// for equal timestamps.
	sort.SliceStable(snap, func(i, j int) bool {
		return snap[i].CreatedAt.After(snap[j].CreatedAt.Time)
	})
	return snap
}
