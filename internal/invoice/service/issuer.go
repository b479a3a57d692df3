// Package service issues invoices for confirmed reports.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"contraventions/internal/invoice/models"
	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
	"contraventions/pkg/platform/sentinel"
	"contraventions/pkg/requestcontext"
)

// Store is the persistence slice the issuer needs.
type Store interface {
	Create(ctx context.Context, inv *models.Invoice) error
	FindByRef(ctx context.Context, ref id.InvoiceRef) (*models.Invoice, error)
	FindByReportRef(ctx context.Context, reportRef id.ReportRef) (*models.Invoice, error)
}

// refAttempts bounds ref-generation retries. With an 8-hex-digit random
// suffix a collision is already vanishingly unlikely; the loop exists so a
// freak collision degrades to a retry instead of a failed confirmation.
const refAttempts = 3

// Issuer creates exactly one invoice per confirmed report.
type Issuer struct {
	store Store
}

func NewIssuer(store Store) (*Issuer, error) {
	if store == nil {
		return nil, errors.New("invoice store is required")
	}
	return &Issuer{store: store}, nil
}

// NewRef generates a globally unique invoice reference for a report,
// e.g. "FAC-CTR-5F3A2B1C-9D41E07A". The ref is reserved only at Issue time;
// callers use it beforehand to name the rendered document.
func (i *Issuer) NewRef(ctx context.Context, reportRef id.ReportRef) (id.InvoiceRef, error) {
	for attempt := 0; attempt < refAttempts; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		ref := id.InvoiceRef("FAC-" + reportRef.String() + "-" + suffix)

		_, err := i.store.FindByRef(ctx, ref)
		if errors.Is(err, sentinel.ErrNotFound) {
			return ref, nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check invoice ref")
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "could not generate a unique invoice ref")
}

// Issue persists the invoice for a report. The confirmation engine prevents
// double issuance by its one-invoice-per-CONFIRMED invariant; the store-level
// uniqueness check here is a defensive backstop.
func (i *Issuer) Issue(ctx context.Context, ref id.InvoiceRef, reportRef id.ReportRef, amount int64, documentRef string) (*models.Invoice, error) {
	if amount < 0 {
		return nil, dErrors.New(dErrors.CodeInternal, "invoice amount must not be negative")
	}
	if documentRef == "" {
		return nil, dErrors.New(dErrors.CodeInternal, "invoice document ref is required")
	}

	inv := &models.Invoice{
		Ref:           ref,
		ReportRef:     reportRef,
		CreatedAt:     requestcontext.Now(ctx),
		Amount:        amount,
		PaymentStatus: models.PaymentUnpaid,
		DocumentRef:   documentRef,
	}
	if err := i.store.Create(ctx, inv); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"an invoice already exists for report %s", reportRef)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to persist invoice")
	}
	return inv, nil
}
