package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if absent) the embedded analytical database
// file. WAL keeps readers unblocked while a persistence run rewrites tables.
// Callers own the handle and must Close it; persistence acquires and
// releases it within a single call.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	return db, db.Ping()
}
