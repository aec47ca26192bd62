// Package testdb opens migrated in-memory databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"medstore/m/internal/config"
	"medstore/m/internal/database"
	"medstore/m/internal/migrations"
)

// Open returns a fresh in-memory SQLite database with the schema applied.
// It is closed when the test finishes.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
