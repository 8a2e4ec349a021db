// Package testutil provides shared test helpers for setting up databases
// and users.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/nmarks/driftpad/internal/models"
	"github.com/nmarks/driftpad/internal/store"
)

// OpenDB creates a temporary SQLite database that is automatically cleaned up.
func OpenDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "driftpad-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *store.DB, email string) *models.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), email, "x")
	if err != nil {
		t.Fatal(err)
	}
	return user
}
