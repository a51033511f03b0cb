// Package sqlite implements the transaction store on a local SQLite
// database. Durable alternative to the memory backend; snapshots are
// re-read and broadcast after every committed mutation.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tally/internal/core"
	"tally/internal/store"
)

type Store struct {
	db  *sql.DB
	hub *store.Hub
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, hub: store.NewHub()}, nil
}

func (s *Store) Create(ctx context.Context, d core.Draft) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, caption, amount, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, d.Caption, d.Amount, string(d.Type), createdAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"caption", d.Caption,
		"amount", d.Amount,
		"type", string(d.Type))

	s.notify(ctx)
	return id, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET caption = ?, amount = ? WHERE id = ?`,
		p.Caption, p.Amount, id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	s.notify(ctx)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	s.notify(ctx)
	return nil
}

func (s *Store) Subscribe(ctx context.Context) (store.Subscription, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}
	return s.hub.Subscribe(ctx, snap), nil
}

func (s *Store) Close() error {
	s.hub.CloseAll()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// notify re-reads the collection and broadcasts it. A read failure here
// only skips the push; the next mutation or subscribe retries.
func (s *Store) notify(ctx context.Context) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot after mutation failed", "error", err)
		return
	}
	s.hub.Broadcast(snap)
}

func (s *Store) snapshot(ctx context.Context) (store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, caption, amount, type, created_at
		 FROM transactions
		 ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	snap := store.Snapshot{}
	for rows.Next() {
		var (
			tx    core.Transaction
			typ   string
			nanos int64
		)
		if err := rows.Scan(&tx.ID, &tx.Caption, &tx.Amount, &typ, &nanos); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.Type(typ)
		tx.CreatedAt = core.NewTimestamp(time.Unix(0, nanos).UTC())
		snap = append(snap, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return snap, nil
}
