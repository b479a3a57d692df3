package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"contraventions/internal/recidive"
	"contraventions/internal/report/models"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
	txcontext "contraventions/pkg/platform/tx"
)

const pqUniqueViolation = "23505"

const reportColumns = `ref, created_at, description, status, motif_label,
	author_id, resident_id, room, building, invoice_ref`

// Postgres persists reports in the contraventions table. Normalized location
// columns are written alongside the raw ones so recidive counting is a plain
// indexed equality match.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, r *models.Report) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO contraventions
			(ref, created_at, description, status, motif_label, author_id,
			 resident_id, room, building, room_norm, building_norm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.Ref.String(), r.CreatedAt, r.Description, r.Status.String(),
		r.MotifLabel.String(), r.AuthorID.String(),
		residentValue(r.ResidentID),
		nullStr(r.Location.Room), nullStr(r.Location.Building),
		nullStr(recidive.NormalizeRoom(r.Location.Room)),
		nullStr(recidive.NormalizeBuilding(r.Location.Building)),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *Postgres) FindByRef(ctx context.Context, ref id.ReportRef) (*models.Report, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+reportColumns+`
		FROM contraventions WHERE ref = $1`,
		ref.String(),
	)
	return scanReport(row)
}

func (s *Postgres) ListByAuthor(ctx context.Context, author id.AgentID) ([]*models.Report, error) {
	return s.list(ctx, `
		SELECT `+reportColumns+`
		FROM contraventions
		WHERE author_id = $1
		ORDER BY created_at DESC, ref`,
		author.String(),
	)
}

func (s *Postgres) ListByResident(ctx context.Context, resident id.ResidentID) ([]*models.Report, error) {
	return s.list(ctx, `
		SELECT `+reportColumns+`
		FROM contraventions
		WHERE resident_id = $1
		ORDER BY created_at DESC, ref`,
		resident.String(),
	)
}

// CountByAuthorBetween counts reports filed by author with
// from <= created_at < to.
func (s *Postgres) CountByAuthorBetween(ctx context.Context, author id.AgentID, from, to time.Time) (int, error) {
	var n int
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM contraventions
		WHERE author_id = $1 AND created_at >= $2 AND created_at < $3`,
		author.String(), from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reports by author: %w", err)
	}
	return n, nil
}

// CountConfirmedMatching counts CONFIRMED reports of the same motif sharing
// the recidive key, excluding the report being decided.
func (s *Postgres) CountConfirmedMatching(ctx context.Context, key recidive.Key, motif id.MotifLabel, exclude id.ReportRef) (int, error) {
	var (
		query string
		args  []any
	)
	switch key.Kind {
	case recidive.KindResident:
		query = `
			SELECT COUNT(*) FROM contraventions
			WHERE motif_label = $1 AND status = $2 AND resident_id = $3 AND ref <> $4`
		args = []any{motif.String(), models.StatusConfirmed.String(), key.Value, exclude.String()}
	case recidive.KindLocation:
		query = `
			SELECT COUNT(*) FROM contraventions
			WHERE motif_label = $1 AND status = $2
			  AND resident_id IS NULL
			  AND room_norm = $3 AND building_norm = $4
			  AND ref <> $5`
		args = []any{motif.String(), models.StatusConfirmed.String(), key.Room, key.Building, exclude.String()}
	default:
		return 0, nil
	}

	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count confirmed matching: %w", err)
	}
	return n, nil
}

// AcquireRecidiveLock serializes confirmations for a recidive key within the
// ambient transaction. The advisory lock is released at commit or rollback.
func (s *Postgres) AcquireRecidiveLock(ctx context.Context, key recidive.Key) error {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return errors.New("recidive lock requires a transaction")
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("acquire recidive lock: %w", err)
	}
	return nil
}

// MarkConfirmed flips a pending report to CONFIRMED, linking the invoice and
// persisting the effective location the decision was taken under.
func (s *Postgres) MarkConfirmed(ctx context.Context, ref id.ReportRef, invoiceRef id.InvoiceRef, loc models.Location) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE contraventions
		SET status = $2, invoice_ref = $3,
		    room = $4, building = $5, room_norm = $6, building_norm = $7
		WHERE ref = $1 AND status = $8`,
		ref.String(), models.StatusConfirmed.String(), invoiceRef.String(),
		nullStr(loc.Room), nullStr(loc.Building),
		nullStr(recidive.NormalizeRoom(loc.Room)),
		nullStr(recidive.NormalizeBuilding(loc.Building)),
		models.StatusPending.String(),
	)
	if err != nil {
		return fmt.Errorf("confirm report: %w", err)
	}
	return s.checkTransition(ctx, res, ref)
}

// MarkDismissed flips a pending report to DISMISSED, writing the description
// with the dismissal note already appended.
func (s *Postgres) MarkDismissed(ctx context.Context, ref id.ReportRef, description string) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE contraventions
		SET status = $2, description = $3
		WHERE ref = $1 AND status = $4`,
		ref.String(), models.StatusDismissed.String(), description,
		models.StatusPending.String(),
	)
	if err != nil {
		return fmt.Errorf("dismiss report: %w", err)
	}
	return s.checkTransition(ctx, res, ref)
}

// checkTransition distinguishes "no such report" from "report already
// terminal" when a guarded UPDATE touched no rows.
func (s *Postgres) checkTransition(ctx context.Context, res sql.Result, ref id.ReportRef) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}
	var status string
	err = s.conn(ctx).QueryRowContext(ctx,
		`SELECT status FROM contraventions WHERE ref = $1`, ref.String(),
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check report status: %w", err)
	}
	return sentinel.ErrInvalidState
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Report, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var (
		r                    models.Report
		ref, status, motif   string
		author               string
		resident, invoiceRef sql.NullString
		room, building       sql.NullString
	)
	err := row.Scan(&ref, &r.CreatedAt, &r.Description, &status, &motif,
		&author, &resident, &room, &building, &invoiceRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}

	parsed, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	r.Ref = id.ReportRef(ref)
	r.Status = parsed
	r.MotifLabel = id.MotifLabel(motif)
	r.AuthorID = id.AgentID(author)
	r.Location = models.Location{Room: room.String, Building: building.String}
	if resident.Valid {
		rid := id.ResidentID(resident.String)
		r.ResidentID = &rid
	}
	if invoiceRef.Valid {
		iref := id.InvoiceRef(invoiceRef.String)
		r.InvoiceRef = &iref
	}
	return &r, nil
}

func residentValue(rid *id.ResidentID) any {
	if rid == nil || rid.IsNil() {
		return nil
	}
	return rid.String()
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
