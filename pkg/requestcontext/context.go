// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware (or tests) and consumed by services, which
// keeps the service packages free of net/http imports.
//
// Usage in services (read values):
//
//	now := requestcontext.Now(ctx)
//	agent := requestcontext.AgentID(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithAgentID(ctx, "agent-7")
package requestcontext

import (
	"context"
	"time"

	id "contraventions/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	agentIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// AgentID retrieves the acting agent from the context. Returns the zero value
// when no agent was attached (background jobs, seeds).
func AgentID(ctx context.Context) id.AgentID {
	if agent, ok := ctx.Value(agentIDKey{}).(id.AgentID); ok {
		return agent
	}
	return ""
}

// WithAgentID injects the acting agent into the context.
func WithAgentID(ctx context.Context, agent id.AgentID) context.Context {
	return context.WithValue(ctx, agentIDKey{}, agent)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Used by the request-time
// middleware and by tests that need deterministic clocks.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
