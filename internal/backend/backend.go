// Package backend selects and constructs the transaction store
// implementation from configuration.
package backend

import (
	"context"
	"fmt"

	"tally/internal/config"
	"tally/internal/store"
)

// Type represents the configured store backend.
type Type string

const (
	Memory    Type = "memory"
	SQLite    Type = "sqlite"
	Firestore Type = "firestore"
)

func (t Type) String() string { return string(t) }

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Firestore:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to construct a store.
type Config struct {
	Type Type

	// SQLite
	SQLiteDBPath string

	// Firestore
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirestoreCollection      string
}

// FromAppConfig converts the application config to a backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                     t,
		SQLiteDBPath:             appConfig.SQLiteDBPath,
		FirestoreProjectID:       appConfig.FirestoreProjectID,
		FirestoreCredentialsFile: appConfig.FirestoreCredentialsFile,
		FirestoreCollection:      appConfig.FirestoreCollection,
	}, nil
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, cfg Config) (store.Store, error)
}
