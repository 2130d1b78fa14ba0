package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/johnwards/treeseed/internal/catalog"
	"github.com/johnwards/treeseed/internal/database"
	"github.com/johnwards/treeseed/internal/store"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewMigratedDB returns a test database with all migrations applied.
func NewMigratedDB(t *testing.T) *sql.DB {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewTestStore returns a store over a migrated database with the built-in
// catalog registered.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New(NewMigratedDB(t))
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	if err := cat.Register(context.Background(), s.Classes); err != nil {
		t.Fatalf("register default catalog: %v", err)
	}
	return s
}
