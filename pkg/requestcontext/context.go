// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values; services read them. Keeping this package free of
// net/http dependencies means services never pull in HTTP code just to learn
// who is calling.
//
// Usage in services (read values):
//
//	agentID := requestcontext.AgentID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithAgentID(ctx, agentID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "vouch/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	agentIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	clientAgentKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyAgentID     = agentIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyClientAgent = clientAgentKey{}
)

// AgentID retrieves the authenticated agent identity from the context.
// Returns the zero value if not set.
func AgentID(ctx context.Context) id.AgentID {
	if agentID, ok := ctx.Value(ContextKeyAgentID).(id.AgentID); ok {
		return agentID
	}
	return ""
}

// WithAgentID injects an agent identity into the context.
func WithAgentID(ctx context.Context, agentID id.AgentID) context.Context {
	return context.WithValue(ctx, ContextKeyAgentID, agentID)
}

// RequestID retrieves the correlation id assigned by middleware.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request time if middleware captured one, falling back to
// time.Now(). Injecting a fixed time keeps time-sensitive logic testable.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects a client IP address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// ClientAgent retrieves the normalized client software description parsed
// from the User-Agent header (e.g. "agent-sdk/2.1 linux").
func ClientAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyClientAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientAgent injects a normalized client description into the context.
func WithClientAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ContextKeyClientAgent, ua)
}
