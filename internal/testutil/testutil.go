// Package testutil provides shared test helpers for setting up databases
// and stores.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/database"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
)

// TestDB creates a temporary SQLite database with the schema applied. It is
// closed and removed when the test ends.
func TestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "plugconversa-test.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore returns a store over a fresh TestDB.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(TestDB(t))
}
