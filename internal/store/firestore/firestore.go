// Package firestore implements the transaction store on Google Cloud
// Firestore, the hosted document collection the tracker was designed
// around. Ids are Firestore document keys, creation timestamps are
// server-assigned, and the snapshot stream maps straight onto the
// collection's realtime listener.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cloudfs "cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tally/internal/core"
	"tally/internal/store"
)

const defaultCollection = "transactions"

type Config struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
}

type Store struct {
	client *cloudfs.Client
	coll   *cloudfs.CollectionRef
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}
	coll := cfg.Collection
	if coll == "" {
		coll = defaultCollection
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := cloudfs.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &Store{client: client, coll: client.Collection(coll)}, nil
}

func (s *Store) Create(ctx context.Context, d core.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}

	ref, _, err := s.coll.Add(ctx, map[string]interface{}{
		"caption":   d.Caption,
		"amount":    d.Amount,
		"type":      string(d.Type),
		"createdAt": cloudfs.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("add transaction document: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Firestore",
		"id", ref.ID,
		"caption", d.Caption,
		"amount", d.Amount,
		"type", string(d.Type))

	return ref.ID, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := s.coll.Doc(id).Update(ctx, []cloudfs.Update{
		{Path: "caption", Value: p.Caption},
		{Path: "amount", Value: p.Amount},
	})
	if err != nil {
		return mapErr("update transaction document", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	// The bare Firestore delete is a no-op on a missing document; the
	// existence precondition turns that into a checkable failure.
	_, err := s.coll.Doc(id).Delete(ctx, cloudfs.Exists)
	if err != nil {
		return mapErr("delete transaction document", err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context) (store.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		ch:     make(chan store.Snapshot, 1),
		cancel: cancel,
	}

	query := s.coll.OrderBy("createdAt", cloudfs.Desc)
	go sub.run(ctx, query.Snapshots(ctx))

	return sub, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func mapErr(op string, err error) error {
	switch status.Code(err) {
	case codes.NotFound, codes.FailedPrecondition:
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// subscription pumps the Firestore query listener into a conflating
// snapshot channel.
type subscription struct {
	ch     chan store.Snapshot
	cancel context.CancelFunc

	mu   sync.Mutex
	done bool
	err  error
}

func (sub *subscription) run(ctx context.Context, it *cloudfs.QuerySnapshotIterator) {
	defer it.Stop()
	for {
		qsnap, err := it.Next()
		if err != nil {
			sub.fail(ctx, err)
			return
		}
		docs, err := qsnap.Documents.GetAll()
		if err != nil {
			sub.fail(ctx, err)
			return
		}

		snap := make(store.Snapshot, 0, len(docs))
		for _, doc := range docs {
			snap = append(snap, decode(doc))
		}
		sub.push(snap)
	}
}

func decode(doc *cloudfs.DocumentSnapshot) core.Transaction {
	data := doc.Data()
	tx := core.Transaction{ID: doc.Ref.ID}
	if v, ok := data["caption"].(string); ok {
		tx.Caption = v
	}
	switch v := data["amount"].(type) {
	case float64:
		tx.Amount = v
	case int64:
		tx.Amount = float64(v)
	}
	if v, ok := data["type"].(string); ok {
		tx.Type = core.Type(v)
	}
	// A nil createdAt is a server timestamp that has not resolved yet;
	// the zero Timestamp keeps it an explicit pending state.
	if v, ok := data["createdAt"].(time.Time); ok {
		tx.CreatedAt = core.NewTimestamp(v)
	}
	return tx
}

func (sub *subscription) push(snap store.Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

func (sub *subscription) fail(ctx context.Context, err error) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	sub.done = true
	if ctx.Err() == nil {
		sub.err = err
		slog.ErrorContext(ctx, "Firestore snapshot stream failed", "error", err)
	}
	close(sub.ch)
}

func (sub *subscription) Updates() <-chan store.Snapshot { return sub.ch }

func (sub *subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *subscription) Close() error {
	sub.cancel()
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.done {
		sub.done = true
		close(sub.ch)
	}
	return nil
}
