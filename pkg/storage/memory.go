package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/codehub/pkg/auth"
)

// MemoryStore keeps users in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*auth.User
	order []string // insertion order, so username lookups return the oldest match
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*auth.User),
	}
}

// GetByID returns the user with the given id
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetByUsername returns the first user registered with username
func (s *MemoryStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if u := s.users[id]; u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, auth.ErrUserNotFound
}

// GetByProviderID returns the user linked to externalID at provider
func (s *MemoryStore) GetByProviderID(ctx context.Context, provider auth.Provider, externalID string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.findByProvider(provider, externalID); u != nil {
		return copyUser(u), nil
	}
	return nil, auth.ErrUserNotFound
}

// Create stores a new user and assigns its id
func (s *MemoryStore) Create(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insert(user)
	return nil
}

// Update overwrites an existing user
func (s *MemoryStore) Update(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return auth.ErrUserNotFound
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = copyUser(user)
	return nil
}

// FindOrCreate returns the user linked to externalID, creating it if absent
func (s *MemoryStore) FindOrCreate(ctx context.Context, provider auth.Provider, externalID, username string) (*auth.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.findByProvider(provider, externalID); u != nil {
		return copyUser(u), false, nil
	}

	user := &auth.User{Username: username}
	user.SetExternalID(provider, externalID)
	s.insert(user)
	return copyUser(user), true, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored users
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *MemoryStore) insert(user *auth.User) {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = copyUser(user)
	s.order = append(s.order, user.ID)
}

func (s *MemoryStore) findByProvider(provider auth.Provider, externalID string) *auth.User {
	if externalID == "" {
		return nil
	}
	for _, id := range s.order {
		if u := s.users[id]; u.ExternalID(provider) == externalID {
			return u
		}
	}
	return nil
}

func copyUser(u *auth.User) *auth.User {
	c := *u
	return &c
}
