// Package testutil builds the in-memory fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

// NewDB opens a private in-memory database with the full schema.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), &database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Code returns a valid 17 character item code unique per n.
func Code(n int) string {
	return fmt.Sprintf("ITEM%013d", n)
}
