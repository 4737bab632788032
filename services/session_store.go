package services

import (
	"context"
	"sync"
	"time"
)

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time)}
}

func (s *MemorySessionStore) Put(_ context.Context, hash string, expiresAt time.Time) error {
	s.mu.Lock()
	s.sessions[hash] = expiresAt
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, hash string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expiresAt, ok := s.sessions[hash]
	return expiresAt, ok, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	delete(s.sessions, hash)
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, expiresAt := range s.sessions {
		if expiresAt.Before(now) {
			delete(s.sessions, hash)
			removed++
		}
	}
	return removed, nil
}

func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
