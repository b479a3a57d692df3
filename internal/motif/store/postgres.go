package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contraventions/internal/motif/models"
	id "contraventions/pkg/domain"
	"contraventions/pkg/platform/sentinel"
	txcontext "contraventions/pkg/platform/tx"
)

// Postgres persists the motif catalog.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Upsert(ctx context.Context, m *models.Motif) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO motifs (label, description, tier1, tier2, tier3, tier4)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (label) DO UPDATE SET
			description = EXCLUDED.description,
			tier1 = EXCLUDED.tier1,
			tier2 = EXCLUDED.tier2,
			tier3 = EXCLUDED.tier3,
			tier4 = EXCLUDED.tier4`,
		m.Label.String(), m.Description,
		nullInt(m.Tier1), nullInt(m.Tier2), nullInt(m.Tier3), nullInt(m.Tier4),
	)
	if err != nil {
		return fmt.Errorf("upsert motif: %w", err)
	}
	return nil
}

func (s *Postgres) FindByLabel(ctx context.Context, label id.MotifLabel) (*models.Motif, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT label, description, tier1, tier2, tier3, tier4
		FROM motifs WHERE label = $1`,
		label.String(),
	)

	var m models.Motif
	var label_ string
	var t1, t2, t3, t4 sql.NullInt64
	if err := row.Scan(&label_, &m.Description, &t1, &t2, &t3, &t4); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find motif: %w", err)
	}
	m.Label = id.MotifLabel(label_)
	m.Tier1, m.Tier2, m.Tier3, m.Tier4 = intPtr(t1), intPtr(t2), intPtr(t3), intPtr(t4)
	return &m, nil
}

func (s *Postgres) ListLabels(ctx context.Context) ([]id.MotifLabel, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT label FROM motifs ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list motif labels: %w", err)
	}
	defer rows.Close()

	var labels []id.MotifLabel
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan motif label: %w", err)
		}
		labels = append(labels, id.MotifLabel(label))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motif labels: %w", err)
	}
	return labels, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
