package store

import (
	"context"
	"sync"

	"estatecore/internal/audit"
)

// InMemory collects audit entries in memory. Tests use Entries to assert on
// what was recorded.
type InMemory struct {
	mu      sync.RWMutex
	entries []*audit.Entry
}

// NewInMemory creates an in-memory audit store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds an entry. Entries are never updated or removed.
func (s *InMemory) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a snapshot of everything appended so far.
func (s *InMemory) Entries() []*audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
