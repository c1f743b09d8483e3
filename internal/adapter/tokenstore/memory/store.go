// Package memory keeps the session credential in process memory.
package memory

import (
	"context"
	"sync"
)

// Store is a TokenStore that forgets the credential when the process exits.
type Store struct {
	mu    sync.RWMutex
	token string
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// NewWithToken creates a Store holding token.
func NewWithToken(token string) *Store {
	return &Store{token: token}
}

func (s *Store) Get(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *Store) Set(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
