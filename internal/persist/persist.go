// Package persist writes a record set to its two sinks: a parquet file and a
// table of the same name inside an embedded sqlite database file. Both
// writes are full overwrites, which makes persistence idempotent but never
// incremental.
package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"attendance-monitoring/internal/store"
)

// previewRows is how much of a freshly persisted table gets printed.
const previewRows = 10

// Tabular is a row that can describe itself as columns and values for the
// database sink. The parquet sink derives its schema from struct tags.
type Tabular interface {
	TableColumns() []string
	TableValues() []any
}

// Error wraps an I/O failure from either sink.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Write persists rows to <outputDir>/<tableName>.parquet and to table
// tableName inside <outputDir>/<dbFileName>.sqlite, replacing any prior
// contents of both. The database handle is released before returning,
// success or not.
func Write[T Tabular](rows []T, outputDir, tableName, dbFileName string, log *zap.Logger) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return &Error{Op: "create output dir", Path: outputDir, Err: err}
	}

	pqPath := filepath.Join(outputDir, tableName+".parquet")
	if err := parquet.WriteFile(pqPath, rows); err != nil {
		return &Error{Op: "write parquet", Path: pqPath, Err: err}
	}

	dbPath := filepath.Join(outputDir, dbFileName+".sqlite")
	if err := writeTable(rows, dbPath, tableName); err != nil {
		return err
	}

	// Operator sanity check, mirrors what just landed in both sinks.
	Preview(os.Stdout, rows, previewRows)

	log.Info("table persisted",
		zap.String("table", tableName),
		zap.String("parquet", pqPath),
		zap.String("database", dbPath),
		zap.Int("rows", len(rows)))
	return nil
}

// writeTable replaces tableName inside the database file with rows, in one
// transaction.
func writeTable[T Tabular](rows []T, dbPath, tableName string) error {
	db, err := store.OpenSQLite(dbPath)
	if err != nil {
		return &Error{Op: "open database", Path: dbPath, Err: err}
	}
	defer db.Close()

	var zero T
	cols := zero.TableColumns()

	tx, err := db.Begin()
	if err != nil {
		return &Error{Op: "begin transaction", Path: dbPath, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", tableName)); err != nil {
		return &Error{Op: "drop table", Path: dbPath, Err: err}
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = fmt.Sprintf("%q %s", col, sqliteType(zero.TableValues()[i]))
	}
	create := fmt.Sprintf("CREATE TABLE %q (%s)", tableName, strings.Join(defs, ", "))
	if _, err := tx.Exec(create); err != nil {
		return &Error{Op: "create table", Path: dbPath, Err: err}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %q VALUES (%s)", tableName, placeholders))
	if err != nil {
		return &Error{Op: "prepare insert", Path: dbPath, Err: err}
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.TableValues()...); err != nil {
			return &Error{Op: "insert row", Path: dbPath, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &Error{Op: "commit", Path: dbPath, Err: err}
	}
	return nil
}

func sqliteType(v any) string {
	switch v.(type) {
	case bool:
		return "BOOLEAN"
	case int, int32, int64:
		return "INTEGER"
	case float32, float64:
		return "REAL"
	case time.Time:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}
