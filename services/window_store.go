package services

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	count  int
	start  time.Time
	window time.Duration
}

// MemoryWindowStore keeps counters in process memory. It is only correct for
// a single-instance deployment.
type MemoryWindowStore struct {
	mu      sync.Mutex
	entries map[string]*memoryWindow
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{entries: make(map[string]*memoryWindow)}
}

func (s *MemoryWindowStore) Take(_ context.Context, key string, p Policy, now time.Time) (Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || now.Sub(ent.start) > p.Window {
		s.entries[key] = &memoryWindow{count: 1, start: now, window: p.Window}
		return Window{Count: 1, Start: now}, true, nil
	}

	if ent.count >= p.Limit {
		return Window{Count: ent.count, Start: ent.start}, false, nil
	}

	ent.count++
	return Window{Count: ent.count, Start: ent.start}, true, nil
}

func (s *MemoryWindowStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.entries {
		if now.Sub(ent.start) > ent.window {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
