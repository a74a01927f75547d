// Package memory provides an in-memory audit store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"docket/pkg/platform/audit"
)

// InMemoryStore keeps events per record id.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[string][]audit.Event),
	}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RecordID] = append(s.events[event.RecordID], event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, recordID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]audit.Event, len(s.events[recordID]))
	copy(events, s.events[recordID])
	return events, nil
}
