package library

import (
	"context"
	"sync"
)

// SessionSlot is the fixed name of the single durable token slot.
const SessionSlot = "current_user"

// SessionStore holds the token of the current user.
//
// GetToken returns ErrNoToken when nothing is stored; storage failures come
// back as *StorageError. ClearToken on an empty slot succeeds. Writes are
// last-write-wins.
type SessionStore interface {
	SetToken(ctx context.Context, token string) error
	GetToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// MemorySession keeps the token in process memory only.
type MemorySession struct {
	mu    sync.RWMutex
	token string
}

func NewMemorySession() *MemorySession { return &MemorySession{} }

func (s *MemorySession) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemorySession) GetToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemorySession) ClearToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
