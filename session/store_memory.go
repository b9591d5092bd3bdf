package session

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a thread-safe in-memory Store. It lives as long as the process.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *MemoryStore) Set(_ context.Context, accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{AccessToken: accessToken, RefreshToken: refreshToken}
}

func (s *MemoryStore) SetAccessToken(_ context.Context, accessToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AccessToken = accessToken
}

func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
}
