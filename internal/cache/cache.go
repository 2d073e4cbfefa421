// Package cache provides the read-through cache in front of the remote
// attendance fetch, keyed by the query window's start date.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"attendance-monitoring/internal/attendance"
	"attendance-monitoring/internal/metrics"
)

// FetchFunc produces the attendance window for a start date. It is only
// invoked on a cache miss.
type FetchFunc func(ctx context.Context, startDate time.Time) ([]attendance.Record, error)

// Store is a read-through cache over attendance windows.
type Store interface {
	GetOrFetch(ctx context.Context, startDate time.Time, fetch FetchFunc) ([]attendance.Record, error)
}

// Key derives the cache entry name for a window start date. One entry exists
// per distinct start date; entries are never expired or invalidated, past
// attendance windows are treated as immutable.
func Key(startDate time.Time) string {
	return "attendance_data-" + startDate.Format("2006-01-02")
}

// DefaultDir resolves the process-standard cache directory for attendance
// windows.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	return filepath.Join(base, "attendance-monitoring", "attendance_data"), nil
}

// FileStore caches one parquet file per start date under Dir. Deleting the
// dated file is the only invalidation mechanism.
type FileStore struct {
	Dir string

	// DisableWrite suppresses cache population, for runs where persisting
	// the window is unwanted. Correctness is unaffected, only latency.
	DisableWrite bool

	log *zap.Logger
}

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir string, log *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{Dir: dir, log: log}, nil
}

// GetOrFetch returns the cached window when the file is present and
// readable, otherwise invokes fetch and populates the cache best-effort.
func (s *FileStore) GetOrFetch(ctx context.Context, startDate time.Time, fetch FetchFunc) ([]attendance.Record, error) {
	path := filepath.Join(s.Dir, Key(startDate))
	if rows, err := parquet.ReadFile[attendance.Record](path); err == nil {
		metrics.CacheHits.Inc()
		s.log.Debug("attendance cache hit", zap.String("path", path), zap.Int("records", len(rows)))
		return rows, nil
	}

	metrics.CacheMisses.Inc()
	rows, err := fetch(ctx, startDate)
	if err != nil {
		return nil, err
	}

	if !s.DisableWrite {
		if err := parquet.WriteFile(path, rows); err != nil {
			s.log.Warn("attendance cache write failed", zap.String("path", path), zap.Error(err))
		}
	}
	return rows, nil
}
