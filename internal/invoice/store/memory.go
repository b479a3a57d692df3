// Package store provides invoice persistence.
package store

import (
	"context"
	"sync"

	"contraventions/internal/invoice/models"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
)

// InMemory keeps invoices in maps keyed by invoice ref and report ref.
type InMemory struct {
	mu       sync.RWMutex
	byRef    map[id.InvoiceRef]models.Invoice
	byReport map[id.ReportRef]id.InvoiceRef
}

func NewInMemory() *InMemory {
	return &InMemory{
		byRef:    make(map[id.InvoiceRef]models.Invoice),
		byReport: make(map[id.ReportRef]id.InvoiceRef),
	}
}

// Create persists a new invoice. Both the invoice ref and the one-invoice-
// per-report constraint are enforced here, mirroring the unique indexes of
// the SQL store.
func (s *InMemory) Create(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byRef[inv.Ref]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byReport[inv.ReportRef]; exists {
		return sentinel.ErrConflict
	}
	s.byRef[inv.Ref] = *inv
	s.byReport[inv.ReportRef] = inv.Ref
	return nil
}

// FindByRef returns the invoice with the given ref.
func (s *InMemory) FindByRef(_ context.Context, ref id.InvoiceRef) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.byRef[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &inv, nil
}

// FindByReportRef returns the invoice issued for a report.
func (s *InMemory) FindByReportRef(_ context.Context, reportRef id.ReportRef) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.byReport[reportRef]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	inv := s.byRef[ref]
	return &inv, nil
}
