// Package store persists contravention reports. The in-memory variant backs
// tests and the zero-dependency deployment mode; the postgres variant is the
// production store.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"contraventions/internal/recidive"
	"contraventions/internal/report/models"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
)

// InMemory is a map-backed report store, safe for concurrent use.
type InMemory struct {
	mu    sync.RWMutex
	byRef map[id.ReportRef]*models.Report
}

func NewInMemory() *InMemory {
	return &InMemory{byRef: make(map[id.ReportRef]*models.Report)}
}

func (s *InMemory) Create(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byRef[r.Ref]; ok {
		return sentinel.ErrConflict
	}
	s.byRef[r.Ref] = clone(r)
	return nil
}

func (s *InMemory) FindByRef(_ context.Context, ref id.ReportRef) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byRef[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

func (s *InMemory) ListByAuthor(_ context.Context, author id.AgentID) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Report
	for _, r := range s.byRef {
		if r.AuthorID == author {
			out = append(out, clone(r))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListByResident(_ context.Context, resident id.ResidentID) ([]*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Report
	for _, r := range s.byRef {
		if r.ResidentID != nil && *r.ResidentID == resident {
			out = append(out, clone(r))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// CountByAuthorBetween counts reports filed by author with
// from <= CreatedAt < to.
func (s *InMemory) CountByAuthorBetween(_ context.Context, author id.AgentID, from, to time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.byRef {
		if r.AuthorID != author {
			continue
		}
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		count++
	}
	return count, nil
}

// CountConfirmedMatching counts CONFIRMED reports of the same motif whose
// recidive key equals key, excluding the report identified by exclude.
func (s *InMemory) CountConfirmedMatching(_ context.Context, key recidive.Key, motif id.MotifLabel, exclude id.ReportRef) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.byRef {
		if r.Ref == exclude || r.Status != models.StatusConfirmed || r.MotifLabel != motif {
			continue
		}
		if recidive.ResolveKey(r) == key {
			count++
		}
	}
	return count, nil
}

// MarkConfirmed moves a pending report to CONFIRMED, linking its invoice and
// persisting the effective location the confirmation was resolved under.
func (s *InMemory) MarkConfirmed(_ context.Context, ref id.ReportRef, invoiceRef id.InvoiceRef, loc models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byRef[ref]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	r.Status = models.StatusConfirmed
	r.InvoiceRef = &invoiceRef
	r.Location = loc
	return nil
}

// MarkDismissed moves a pending report to DISMISSED. The note, if any, has
// already been appended to the description by the caller.
func (s *InMemory) MarkDismissed(_ context.Context, ref id.ReportRef, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byRef[ref]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Status != models.StatusPending {
		return sentinel.ErrInvalidState
	}
	r.Status = models.StatusDismissed
	r.Description = description
	return nil
}

func sortNewestFirst(reports []*models.Report) {
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].Ref < reports[j].Ref
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}

func clone(r *models.Report) *models.Report {
	cp := *r
	if r.ResidentID != nil {
		v := *r.ResidentID
		cp.ResidentID = &v
	}
	if r.InvoiceRef != nil {
		v := *r.InvoiceRef
		cp.InvoiceRef = &v
	}
	return &cp
}
