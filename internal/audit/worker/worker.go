// Package worker drains the audit outbox to a sink.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contraventions/internal/audit"
	"contraventions/internal/audit/publisher"
)

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 100
)

// Worker polls the outbox and forwards pending events to the sink. Events are
// marked published only after the sink accepts them, so a crash between
// publish and mark causes redelivery, never loss.
type Worker struct {
	store    audit.Store
	sink     publisher.Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batch = n }
}

func NewWorker(store audit.Store, sink publisher.Sink, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: defaultInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run drains the outbox until ctx is cancelled. Sink failures are logged and
// retried on the next tick; they never stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.Error("audit outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce publishes at most one batch of pending events.
func (w *Worker) DrainOnce(ctx context.Context) error {
	events, err := w.store.ListUnpublished(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	if err := w.sink.Publish(ctx, events); err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if err := w.store.MarkPublished(ctx, ids, time.Now()); err != nil {
		return err
	}

	w.logger.Debug("audit outbox drained", "events", len(events))
	return nil
}
