// Package testutil provides shared test helpers for setting up data
// directories, collections, and audit databases.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/starford/laguz/internal/audit"
	"github.com/starford/laguz/internal/catalog"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/members"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/storage"
)

// TestStore creates a temporary data directory with a *storage.Store.
func TestStore(t *testing.T) (string, *storage.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestCollections builds the three typed wrappers over one temp store.
func TestCollections(t *testing.T) (*catalog.Catalog, *members.Directory, *ledger.Ledger) {
	t.Helper()
	_, store := TestStore(t)
	logger := slog.Default()
	books := catalog.New(storage.NewCollection[models.Book](store, models.CollectionBooks, logger))
	dir := members.New(storage.NewCollection[models.Member](store, models.CollectionMembers, logger))
	records := ledger.New(storage.NewCollection[models.BorrowRecord](store, models.CollectionHistory, logger))
	return books, dir, records
}

// TestAudit creates a temporary SQLite audit log that is automatically cleaned up.
func TestAudit(t *testing.T) *audit.Log {
	t.Helper()
	dbFile, err := os.CreateTemp("", "laguz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	trail, err := audit.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { trail.Close() })
	return trail
}
