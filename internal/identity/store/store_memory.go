package store

import (
	"context"
	"strings"
	"sync"

	"aegis/internal/identity/models"
)

// InMemoryStore keeps users in a map. Used for tests and for running the
// server without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

// Save stores a user, rejecting duplicate IDs or emails.
func (s *InMemoryStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := s.byID[user.ID]; exists {
		return ErrAlreadyExists
	}
	if _, exists := s.byEmail[email]; exists {
		return ErrAlreadyExists
	}

	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[email] = &cp
	return nil
}

// FindByID returns the user with the given ID.
func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// FindByEmail returns the user with the given email, case-insensitively.
func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// Count returns the number of stored users.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
