// Package testdb opens throwaway in-memory databases for store tests.
package testdb

import (
	"context"
	"testing"

	"github.com/gimlabs/gim/infrastructure/persistence"
	"github.com/gimlabs/gim/internal/database"
)

// New creates an in-memory SQLite database with the full gim schema applied
// and closes it when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
