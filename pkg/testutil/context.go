package testutil

import (
	"net/http"
	"time"

	id "contraventions/pkg/domain"
	"contraventions/pkg/requestcontext"
)

// WithAgent attaches an acting agent to the request context, simulating what
// the transport layer does after identifying the caller.
func WithAgent(req *http.Request, agent id.AgentID) *http.Request {
	return req.WithContext(requestcontext.WithAgentID(req.Context(), agent))
}

// WithRequestTime pins the request-scoped clock, keeping handler tests
// deterministic.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
