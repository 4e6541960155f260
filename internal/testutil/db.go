// Package testutil provides fixtures shared by package tests: a run
// history database, repository presets and fakes for the backend and feed.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/history"
)

// NewTestStore opens a migrated history database in a temp directory. It is
// closed when the test ends.
func NewTestStore(t *testing.T) *history.SQLiteStore {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
