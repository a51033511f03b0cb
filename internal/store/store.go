// Package store defines the transaction store port: the boundary the
// form, list view and relay consume. Adapters live in subpackages
// (memory, sqlite, firestore) and are selected by the backend factory.
package store

import (
	"context"
	"errors"

	"tally/internal/core"
)

// Snapshot is the full current transaction sequence, ordered by
// creation time descending. Every delivery fully replaces the previous
// one; the store never sends deltas.
type Snapshot []core.Transaction

// ErrNotFound reports an update or delete against an id the store does
// not hold. A second delete of the same id fails with it.
var ErrNotFound = errors.New("transaction not found")

type (
	// Subscription is a live snapshot stream. Close must be called when
	// the consuming view is torn down, or the stream leaks.
	Subscription interface {
		// Updates yields full snapshots. The initial snapshot is
		// delivered immediately after subscribing; the channel is
		// closed after Close or a stream failure.
		Updates() <-chan Snapshot
		// Err returns the failure that ended the stream, if any.
		Err() error
		Close() error
	}

	// Store is the authoritative owner of the collection. Last writer
	// wins; there are no transactions and no optimistic concurrency.
	Store interface {
		// Create assigns an id and a server timestamp to the draft.
		Create(ctx context.Context, d core.Draft) (id string, err error)
		// Update rewrites caption and amount; ErrNotFound if id is absent.
		Update(ctx context.Context, id string, p core.Patch) error
		// Delete removes the transaction; ErrNotFound if id is absent.
		Delete(ctx context.Context, id string) error
		// Subscribe opens a snapshot stream ordered by createdAt desc.
		Subscribe(ctx context.Context) (Subscription, error)
		Close() error
	}
)
