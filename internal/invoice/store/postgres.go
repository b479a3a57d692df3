package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"contraventions/internal/invoice/models"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
	txcontext "contraventions/pkg/platform/tx"
)

// pqUniqueViolation is the Postgres error code for unique constraint breaks.
const pqUniqueViolation = "23505"

// Postgres persists invoices. Writes join an ambient transaction from the
// context when one is present, so invoice creation commits or rolls back
// with the report status flip.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, inv *models.Invoice) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO factures (ref, report_ref, created_at, amount, payment_status, document_ref)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.Ref.String(), inv.ReportRef.String(), inv.CreatedAt, inv.Amount,
		string(inv.PaymentStatus), inv.DocumentRef,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

func (s *Postgres) FindByRef(ctx context.Context, ref id.InvoiceRef) (*models.Invoice, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx, `
		SELECT ref, report_ref, created_at, amount, payment_status, document_ref
		FROM factures WHERE ref = $1`,
		ref.String(),
	))
}

func (s *Postgres) FindByReportRef(ctx context.Context, reportRef id.ReportRef) (*models.Invoice, error) {
	return s.scanOne(s.conn(ctx).QueryRowContext(ctx, `
		SELECT ref, report_ref, created_at, amount, payment_status, document_ref
		FROM factures WHERE report_ref = $1`,
		reportRef.String(),
	))
}

func (s *Postgres) scanOne(row *sql.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var ref, reportRef, status string
	if err := row.Scan(&ref, &reportRef, &inv.CreatedAt, &inv.Amount, &status, &inv.DocumentRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.Ref = id.InvoiceRef(ref)
	inv.ReportRef = id.ReportRef(reportRef)
	inv.PaymentStatus = models.PaymentStatus(status)
	return &inv, nil
}
