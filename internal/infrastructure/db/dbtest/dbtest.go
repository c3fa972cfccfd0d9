// Package dbtest opens a migrated in-memory SQLite store for tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hivectl/backend/internal/config"
	"github.com/hivectl/backend/internal/infrastructure/db"
	"gorm.io/gorm"
)

// New returns a fresh, migrated database private to the calling test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	database, err := db.NewConnection(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.RunMigrations(database); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })
	return database
}
