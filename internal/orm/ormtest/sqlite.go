package ormtest

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a private in-memory database closed with the test
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })
	return db
}
