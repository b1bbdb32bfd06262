package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	count     int
	lastReset time.Time
}

// MemoryStore is a process-wide fixed-window counter.
// It starts empty, resets an entry when its window elapses and clears the
// whole map once it holds more than maxKeys entries.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	maxKeys int
	now     func() time.Time
}

// NewMemoryStore creates an empty store. maxKeys <= 0 defaults to 500.
func NewMemoryStore(maxKeys int) *MemoryStore {
	if maxKeys <= 0 {
		maxKeys = 500
	}
	return &MemoryStore{
		entries: make(map[string]*windowEntry),
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Hit implements Store
func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok {
		entry = &windowEntry{lastReset: now}
	}
	if entry.lastReset.Before(now.Add(-window)) {
		entry.count = 0
		entry.lastReset = now
	}
	entry.count++
	s.entries[key] = entry
	count := entry.count

	if len(s.entries) > s.maxKeys {
		s.entries = make(map[string]*windowEntry)
	}

	return count, nil
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops entries whose window has elapsed
func (s *MemoryStore) Sweep(window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-window)
	removed := 0
	for key, entry := range s.entries {
		if entry.lastReset.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
