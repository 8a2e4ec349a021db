// Package store provides the SQLite-backed record store for journal
// entries and users.
package store

import (
	"context"

	"github.com/nmarks/driftpad/internal/models"
)

// Recorder defines the interface for journal record operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type Recorder interface {
	GetNote(ctx context.Context, id string) (*models.JournalEntry, error)
	InsertNote(ctx context.Context, userID, entryType, title, content string) (*models.JournalEntry, error)
	UpdateNote(ctx context.Context, id, title, content string) error
	DeleteNote(ctx context.Context, userID, id string) error
	DeleteNotes(ctx context.Context, userID string, ids []string) (int, error)
	ListNotes(ctx context.Context, userID string) ([]models.JournalEntry, error)

	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	Close() error
}

// Verify *DB satisfies Recorder at compile time.
var _ Recorder = (*DB)(nil)
