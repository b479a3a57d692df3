// Package publisher delivers drained audit events to their destination.
package publisher

import (
	"context"
	"log/slog"

	"contraventions/internal/audit"
)

// Sink receives a batch of outbox events. A batch is retried as a whole, so
// sinks must tolerate redelivery; events carry stable IDs for deduplication.
type Sink interface {
	Publish(ctx context.Context, events []audit.Event) error
}

// LogSink writes events to the structured log. It is the default sink when no
// broker is configured, which keeps the audit trail visible in memory-mode
// and development deployments.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, events []audit.Event) error {
	for _, e := range events {
		s.logger.Info("audit",
			"event_id", e.ID.String(),
			"action", string(e.Action),
			"subject", e.Subject,
			"actor_id", e.ActorID,
			"request_id", e.RequestID,
		)
	}
	return nil
}
