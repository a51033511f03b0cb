package backend

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/store"
	fsstore "tally/internal/store/firestore"
	"tally/internal/store/memory"
	"tally/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Type {
	case SQLite:
		st, err := sqlite.NewStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", cfg.SQLiteDBPath)
		return st, nil

	case Firestore:
		st, err := fsstore.NewStore(ctx, fsstore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			Collection:      cfg.FirestoreCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize firestore store: %w", err)
		}
		f.logger.Info("Initialized Firestore store",
			"project_id", cfg.FirestoreProjectID,
			"collection", cfg.FirestoreCollection)
		return st, nil

	case Memory:
		f.logger.Info("Initialized memory store")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
