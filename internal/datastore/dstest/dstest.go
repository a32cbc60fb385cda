// Package dstest opens throwaway SQLite-backed repositories for tests.
package dstest

import (
	"path/filepath"
	"testing"

	"github.com/sentitrack/sentitrack/internal/datastore"
)

// Open returns a migrated repository backed by a SQLite file in t.TempDir.
func Open(t *testing.T) *datastore.Repository {
	t.Helper()

	db, err := datastore.Open("sqlite", filepath.Join(t.TempDir(), "sentitrack_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := datastore.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return datastore.NewRepository(db)
}
