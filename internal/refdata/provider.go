// Package refdata serves the timetable and student-directory reference
// tables from one of several backing stores.
package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"attendance-monitoring/internal/drive"
)

// StoreKind selects the backing store. The set is closed; an unknown kind is
// a hard fault, never a silent fall-through.
type StoreKind string

const (
	StoreLocal    StoreKind = "local"
	StoreDrive    StoreKind = "drive"
	StorePostgres StoreKind = "postgres"
)

// DataSource names the upstream system a table was exported from.
type DataSource string

const (
	SourcePostgres  DataSource = "postgres"
	SourceSQLServer DataSource = "sqlserver"
)

// ErrUnsupportedStore is returned by ForStore for kinds outside the closed set.
var ErrUnsupportedStore = errors.New("unsupported data store")

// NotFoundError reports a (store, source, table) combination with no
// implementation or no backing artifact.
type NotFoundError struct {
	Store  StoreKind
	Source DataSource
	Table  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s table %s/%s available", e.Store, e.Source, e.Table)
}

// Provider exposes the reference tables reconciliation needs.
type Provider interface {
	ClassInstances(ctx context.Context) ([]ClassInstance, error)
	Periods(ctx context.Context) ([]Period, error)
	Students(ctx context.Context) ([]Student, error)
}

// Config carries the store-specific collaborators; only the field matching
// the chosen kind is consulted.
type Config struct {
	// LocalRoot is the extracted-parquet directory tree root:
	// <root>/<source>/<table>.parquet.
	LocalRoot string
	Drive     *drive.Client
	DB        *sql.DB
	Log       *zap.Logger
}

// ForStore builds the provider for a store kind.
func ForStore(kind StoreKind, cfg Config) (Provider, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	switch kind {
	case StoreLocal:
		if cfg.LocalRoot == "" {
			return nil, errors.New("local store requires a reference root directory")
		}
		return &localStore{root: cfg.LocalRoot, log: log}, nil
	case StoreDrive:
		if cfg.Drive == nil {
			return nil, errors.New("drive store requires a drive client")
		}
		return &driveStore{client: cfg.Drive, log: log}, nil
	case StorePostgres:
		if cfg.DB == nil {
			return nil, errors.New("postgres store requires a database handle")
		}
		return &postgresStore{db: cfg.DB, log: log}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, kind)
	}
}
