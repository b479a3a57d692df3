package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"contraventions/internal/audit"
	dErrors "contraventions/pkg/domain-errors"
)

type flakySink struct {
	err   error
	calls int
}

func (s *flakySink) Publish(_ context.Context, _ []audit.Event) error {
	s.calls++
	return s.err
}

func TestBreakerSink_OpensAfterThreshold(t *testing.T) {
	next := &flakySink{err: errors.New("broker down")}
	sink := NewBreakerSink(next, WithFailureThreshold(3), WithCooldown(time.Hour))

	batch := []audit.Event{{Action: audit.ActionReportCreated}}
	for i := 0; i < 3; i++ {
		require.Error(t, sink.Publish(context.Background(), batch))
	}
	require.Equal(t, 3, next.calls)

	err := sink.Publish(context.Background(), batch)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	require.Equal(t, 3, next.calls, "open circuit must not reach the sink")
}

func TestBreakerSink_ProbesAfterCooldown(t *testing.T) {
	next := &flakySink{err: errors.New("broker down")}
	sink := NewBreakerSink(next, WithFailureThreshold(1), WithCooldown(10*time.Millisecond))

	batch := []audit.Event{{Action: audit.ActionInvoiceIssued}}
	require.Error(t, sink.Publish(context.Background(), batch))
	require.True(t, dErrors.HasCode(sink.Publish(context.Background(), batch), dErrors.CodeUnavailable))

	time.Sleep(20 * time.Millisecond)

	next.err = nil
	require.NoError(t, sink.Publish(context.Background(), batch))
	require.Equal(t, 2, next.calls)

	// Circuit closed again, failures reset.
	require.NoError(t, sink.Publish(context.Background(), batch))
	require.Equal(t, 3, next.calls)
}
