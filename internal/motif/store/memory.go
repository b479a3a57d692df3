// Package store provides motif catalog persistence.
package store

import (
	"context"
	"sort"
	"sync"

	"contraventions/internal/motif/models"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
)

// InMemory keeps the catalog in a map. Reads vastly outnumber writes (the
// catalog only changes at seed time), so a plain RWMutex is enough.
type InMemory struct {
	mu     sync.RWMutex
	motifs map[id.MotifLabel]models.Motif
}

func NewInMemory() *InMemory {
	return &InMemory{motifs: make(map[id.MotifLabel]models.Motif)}
}

// Upsert creates or replaces a catalog entry.
func (s *InMemory) Upsert(_ context.Context, m *models.Motif) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motifs[m.Label] = *clone(m)
	return nil
}

// FindByLabel returns the motif for a label.
func (s *InMemory) FindByLabel(_ context.Context, label id.MotifLabel) (*models.Motif, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.motifs[label]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(&m), nil
}

// clone deep-copies a motif so callers cannot reach into the catalog through
// shared tier pointers.
func clone(m *models.Motif) *models.Motif {
	out := *m
	out.Tier1 = cloneAmount(m.Tier1)
	out.Tier2 = cloneAmount(m.Tier2)
	out.Tier3 = cloneAmount(m.Tier3)
	out.Tier4 = cloneAmount(m.Tier4)
	return &out
}

func cloneAmount(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// ListLabels returns all catalog labels, sorted.
func (s *InMemory) ListLabels(_ context.Context) ([]id.MotifLabel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]id.MotifLabel, 0, len(s.motifs))
	for label := range s.motifs {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels, nil
}
