// Package session provides refresh-token session storage backends.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/nmarks/driftpad/internal/apperr"
)

// Data holds what is stored for each refresh token.
type Data struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists refresh tokens keyed by token hash.
type Store interface {
	Save(ctx context.Context, token string, data Data, ttl time.Duration) error
	Get(ctx context.Context, token string) (Data, error)
	Delete(ctx context.Context, token string) error
}

// HashToken derives the storage key for a refresh token. Raw tokens are
// never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Save stores the session under the token hash.
func (s *MemoryStore) Save(_ context.Context, token string, data Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[HashToken(token)] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get returns the session for the token, or ErrNotFound if missing or expired.
func (s *MemoryStore) Get(_ context.Context, token string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := HashToken(token)
	e, ok := s.entries[key]
	if !ok {
		return Data{}, apperr.ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return Data{}, apperr.ErrNotFound
	}
	return e.data, nil
}

// Delete removes the session for the token.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, HashToken(token))
	return nil
}
