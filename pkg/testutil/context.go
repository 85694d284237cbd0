package testutil

import (
	"context"
	"net/http"

	id "vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

// WithAgent adds an agent identity to the request context, simulating what
// the auth middleware does for authenticated requests. Invalid ids are
// silently ignored.
func WithAgent(req *http.Request, agentID string) *http.Request {
	parsed, err := id.ParseAgentID(agentID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithAgentID(req.Context(), parsed))
}

// WithRequestID stamps a correlation id on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
