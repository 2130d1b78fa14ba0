package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/treeseed/internal/database"
	"github.com/johnwards/treeseed/internal/testhelpers"
)

func TestOpen(t *testing.T) {
	db := testhelpers.NewTestDB(t)

	require.NoError(t, db.Ping())

	// In-memory databases may report "memory" instead of "wal".
	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Contains(t, []string{"wal", "memory"}, journalMode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.db")

	db, err := database.Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, database.Migrate(context.Background(), db))

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)
}

func TestMigrateIdempotent(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, database.Migrate(ctx, db), "migrate run %d", i+1)
	}
}
