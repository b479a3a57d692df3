// Package store persists the audit outbox.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"contraventions/internal/audit"
)

// InMemory is a slice-backed outbox for tests and memory-mode deployments.
type InMemory struct {
	mu        sync.RWMutex
	events    []audit.Event
	published map[uuid.UUID]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{published: make(map[uuid.UUID]time.Time)}
}

func (s *InMemory) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListUnpublished(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Event
	for _, e := range s.events {
		if _, ok := s.published[e.ID]; ok {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventID := range ids {
		s.published[eventID] = at
	}
	return nil
}

// All returns every appended event in order, published or not. Test helper.
func (s *InMemory) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...)
}
