package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"contraventions/internal/audit"
	txcontext "contraventions/pkg/platform/tx"
)

// Postgres writes events to the audit_outbox table. Appends join the ambient
// transaction so an event commits with the mutation it describes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) conn(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, event audit.Event) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO audit_outbox
			(id, occurred_at, action, subject, actor_id, reason, amount, occurrence, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.OccurredAt, string(event.Action), event.Subject,
		event.ActorID, event.Reason, event.Amount, event.Occurrence,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListUnpublished returns pending events oldest first. The worker drains them
// and the partial index keeps the scan cheap as the table grows.
func (s *Postgres) ListUnpublished(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, action, subject, actor_id, reason, amount, occurrence, request_id
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unpublished audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e          audit.Event
			action     string
			amount     sql.NullInt64
			occurrence sql.NullInt32
		)
		err := rows.Scan(&e.ID, &e.OccurredAt, &action, &e.Subject,
			&e.ActorID, &e.Reason, &amount, &occurrence, &e.RequestID)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		if amount.Valid {
			v := amount.Int64
			e.Amount = &v
		}
		if occurrence.Valid {
			v := int(occurrence.Int32)
			e.Occurrence = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unpublished audit events: %w", err)
	}
	return out, nil
}

func (s *Postgres) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $2 WHERE id = ANY($1)`,
		pq.Array(ids), at,
	)
	if err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}
