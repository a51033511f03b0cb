package store

import (
	"context"
	"sync"
)

// Hub fans snapshots out to subscribers. The memory and sqlite adapters
// share it: after every committed mutation they push a fresh snapshot
// and the hub delivers it to each open subscription.
//
// Delivery is conflating: each subscriber holds at most one pending
// snapshot, and a newer one displaces it. A slow consumer therefore
// skips intermediate states and lands on the latest, which matches the
// store's last-write-wins policy.
type Hub struct {
	mu   sync.Mutex
	subs map[*hubSub]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*hubSub]struct{})}
}

// Subscribe registers a subscriber primed with the given snapshot. The
// subscription is torn down either by Close or when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, initial Snapshot) Subscription {
	s := &hubSub{
		hub: h,
		ch:  make(chan Snapshot, 1),
	}
	s.ch <- initial

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			_ = s.Close()
		}()
	}
	return s
}

// Broadcast replaces every subscriber's pending snapshot.
func (h *Hub) Broadcast(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.push(snap)
	}
}

// CloseAll tears down every open subscription. Used on store shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	subs := make([]*hubSub, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
}

func (h *Hub) remove(s *hubSub) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

type hubSub struct {
	hub  *Hub
	ch   chan Snapshot
	mu   sync.Mutex
	done bool
}

func (s *hubSub) push(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	// Displace an unconsumed snapshot; only the latest matters.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (s *hubSub) Updates() <-chan Snapshot { return s.ch }

// Err always reports nil for hub-backed subscriptions: local adapters
// cannot lose the stream short of Close.
func (s *hubSub) Err() error { return nil }

func (s *hubSub) Close() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	close(s.ch)
	s.mu.Unlock()

	s.hub.remove(s)
	return nil
}
