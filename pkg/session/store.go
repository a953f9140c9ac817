// Package session maps opaque session tokens to user ids and carries the
// token to the browser in a signed cookie.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a token has no live session
var ErrNotFound = errors.New("session not found")

// Store persists the token to user id mapping. Only the user id is stored.
type Store interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// Save stores userID under token. A zero ttl never expires.
func (s *MemoryStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	entry := memoryEntry{userID: userID}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.sessions[hashToken(token)] = entry
	s.mu.Unlock()
	return nil
}

// Lookup returns the user id stored under token
func (s *MemoryStore) Lookup(ctx context.Context, token string) (string, error) {
	key := hashToken(token)

	s.mu.RLock()
	entry, ok := s.sessions[key]
	s.mu.RUnlock()

	if !ok {
		return "", ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, key)
		s.mu.Unlock()
		return "", ErrNotFound
	}
	return entry.userID, nil
}

// Delete removes token; deleting an unknown token is not an error
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, hashToken(token))
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions, including expired ones not yet
// looked up
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
