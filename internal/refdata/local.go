package refdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// localStore reads reference tables from an extracted parquet directory tree.
type localStore struct {
	root string
	log  *zap.Logger
}

func localTable[T any](s *localStore, source DataSource, table string) ([]T, error) {
	path := filepath.Join(s.root, string(source), table+".parquet")
	if _, err := os.Stat(path); err != nil {
		return nil, &NotFoundError{Store: StoreLocal, Source: source, Table: table}
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read reference table %s: %w", path, err)
	}
	s.log.Debug("reference table loaded",
		zap.String("table", table), zap.String("path", path), zap.Int("rows", len(rows)))
	return rows, nil
}

func (s *localStore) ClassInstances(ctx context.Context) ([]ClassInstance, error) {
	return localTable[ClassInstance](s, SourcePostgres, "classinstance")
}

func (s *localStore) Periods(ctx context.Context) ([]Period, error) {
	return localTable[Period](s, SourcePostgres, "period")
}

func (s *localStore) Students(ctx context.Context) ([]Student, error) {
	return localTable[Student](s, SourcePostgres, "vw_student_details")
}
