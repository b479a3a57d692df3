package recidive

import (
	"context"

	id "contraventions/pkg/domain"
	dErrors "contraventions/pkg/domain-errors"
)

// ConfirmedCounter is the slice of the report store the counter needs: the
// number of CONFIRMED reports matching a key and motif, excluding one ref.
// Implementations must apply the same key resolution rules as ResolveKey.
type ConfirmedCounter interface {
	CountConfirmedMatching(ctx context.Context, key Key, motif id.MotifLabel, exclude id.ReportRef) (int, error)
}

// Counter counts prior confirmed occurrences for a recidive key.
type Counter struct {
	store ConfirmedCounter
}

func NewCounter(store ConfirmedCounter) *Counter {
	return &Counter{store: store}
}

// CountPrior returns how many other reports with the same key and motif have
// already been confirmed. Unmatchable keys never match anything and short-
// circuit to zero. The exclude ref guards against a report counting itself;
// callers confirm a report only after reading this count, but the exclusion
// makes the contract hold regardless of call ordering.
func (c *Counter) CountPrior(ctx context.Context, key Key, motif id.MotifLabel, exclude id.ReportRef) (int, error) {
	if !key.Matchable() {
		return 0, nil
	}
	n, err := c.store.CountConfirmedMatching(ctx, key, motif, exclude)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count prior occurrences")
	}
	return n, nil
}
