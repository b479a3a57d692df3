// Package audit records decision events through a transactional outbox.
// Events are appended in the same transaction as the domain mutation they
// describe, then drained to a sink by a background worker, so the audit trail
// never shows a confirmation that did not commit.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contraventions/pkg/requestcontext"
)

// Action is the closed set of audited actions.
type Action string

const (
	ActionReportCreated   Action = "report_created"
	ActionReportConfirmed Action = "report_confirmed"
	ActionReportDismissed Action = "report_dismissed"
	ActionInvoiceIssued   Action = "invoice_issued"
)

// Event captures one audited action. Subject is the report or invoice ref the
// action concerns. Amount and Occurrence are set only for confirmations and
// invoice issuance.
type Event struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
	Action     Action    `json:"action"`
	Subject    string    `json:"subject"`
	ActorID    string    `json:"actorId,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Amount     *int64    `json:"amount,omitempty"`
	Occurrence *int      `json:"occurrence,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
}

// Store is the outbox. Append joins any ambient transaction; ListUnpublished
// and MarkPublished are used by the drain worker only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListUnpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Recorder stamps and appends events. It is the only audit surface domain
// services see.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record fills in identity, actor and request correlation from context and
// appends the event to the outbox. Callers invoke it inside the transaction
// that performs the mutation being audited.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.AgentID(ctx).String()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := r.store.Append(ctx, event); err != nil {
		return err
	}
	r.logger.Debug("audit event recorded",
		"action", string(event.Action),
		"subject", event.Subject,
	)
	return nil
}
