// Package testutil provides shared helpers for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/pocketwatch-app/pocketwatch/internal/storage"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database with migrations applied.
// The database is closed automatically when the test finishes.
func NewTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.Migrate(context.Background())
	require.NoError(t, err, "failed to migrate test database")

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
