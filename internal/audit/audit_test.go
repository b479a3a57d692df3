package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"contraventions/internal/audit"
	"contraventions/internal/audit/store"
	"contraventions/pkg/requestcontext"
)

func TestRecorder_Record(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithAgentID(ctx, "agent-7")
	ctx = requestcontext.WithRequestID(ctx, "req-123")

	t.Run("stamps identity and correlation from context", func(t *testing.T) {
		st := store.NewInMemory()
		rec := audit.NewRecorder(st, logger)

		err := rec.Record(ctx, audit.Event{
			Action:  audit.ActionReportConfirmed,
			Subject: "CTR-5F3A2B1C",
		})
		require.NoError(t, err)

		events := st.All()
		require.Len(t, events, 1)
		e := events[0]
		require.NotEqual(t, uuid.Nil, e.ID)
		require.Equal(t, now, e.OccurredAt)
		require.Equal(t, "agent-7", e.ActorID)
		require.Equal(t, "req-123", e.RequestID)
	})

	t.Run("explicit fields are not overwritten", func(t *testing.T) {
		st := store.NewInMemory()
		rec := audit.NewRecorder(st, logger)

		earlier := now.Add(-time.Hour)
		err := rec.Record(ctx, audit.Event{
			OccurredAt: earlier,
			Action:     audit.ActionReportDismissed,
			Subject:    "CTR-5F3A2B1C",
			ActorID:    "supervisor-1",
			Reason:     "duplicate",
		})
		require.NoError(t, err)

		e := st.All()[0]
		require.Equal(t, earlier, e.OccurredAt)
		require.Equal(t, "supervisor-1", e.ActorID)
		require.Equal(t, "duplicate", e.Reason)
	})
}
