package publisher

import (
	"context"
	"sync"
	"time"

	"contraventions/internal/audit"
	dErrors "contraventions/pkg/domain-errors"
)

const (
	defaultFailureThreshold = 5
	defaultCooldown         = time.Minute
)

// BreakerSink wraps a sink with a circuit breaker so a dead broker is probed
// once per cooldown instead of on every drain tick. Rejected batches stay in
// the outbox; nothing is dropped.
type BreakerSink struct {
	next Sink

	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	failures  int
	openUntil time.Time
}

type BreakerOption func(*BreakerSink)

func WithFailureThreshold(n int) BreakerOption {
	return func(b *BreakerSink) {
		if n > 0 {
			b.threshold = n
		}
	}
}

func WithCooldown(d time.Duration) BreakerOption {
	return func(b *BreakerSink) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func NewBreakerSink(next Sink, opts ...BreakerOption) *BreakerSink {
	b := &BreakerSink{
		next:      next,
		threshold: defaultFailureThreshold,
		cooldown:  defaultCooldown,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BreakerSink) Publish(ctx context.Context, events []audit.Event) error {
	if !b.allow() {
		return dErrors.New(dErrors.CodeUnavailable, "audit sink circuit open")
	}
	if err := b.next.Publish(ctx, events); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// allow reports whether a publish attempt may proceed. An expired cooldown
// lets one probe batch through; its outcome decides whether the circuit
// closes again.
func (b *BreakerSink) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return true
	}
	if time.Now().After(b.openUntil) {
		b.failures = b.threshold - 1
		return true
	}
	return false
}

func (b *BreakerSink) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = time.Now().Add(b.cooldown)
	}
}

func (b *BreakerSink) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
