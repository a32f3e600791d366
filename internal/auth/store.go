package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrUserExists   = errors.New("auth: user already exists")
	ErrUserNotFound = errors.New("auth: user not found")
)

// User is an account record. PasswordHash is never serialized.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, user User) error
	FindByUsername(ctx context.Context, username string) (User, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore returns an in-memory UserStore.
func NewMemoryStore() UserStore {
	return &memoryStore{users: map[string]User{}}
}

func (s *memoryStore) Create(_ context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return ErrUserExists
	}
	s.users[user.Username] = user
	return nil
}

func (s *memoryStore) FindByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
