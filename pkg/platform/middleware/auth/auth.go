// Package auth provides bearer-token authentication middleware.
//
// The gateway authenticates autonomous agents, not humans: every caller
// presents a JWT whose subject is its agent identity. The middleware
// validates the token and places the identity in the request context; ledger
// authorization (oracle-only, owner-only, requester-only) happens in the
// service layer against that identity.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "vouch/pkg/domain"
	"vouch/pkg/requestcontext"
)

// TokenVerifier validates a bearer token and returns the agent identity it
// asserts.
type TokenVerifier interface {
	Verify(tokenString string) (id.AgentID, error)
}

// writeJSONError writes a JSON error response without importing httputil,
// keeping the middleware chain free of handler-layer dependencies.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAgent rejects requests without a valid bearer token and injects the
// verified agent identity into the context.
func RequireAgent(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "Bearer token required")
				return
			}

			agentID, err := verifier.Verify(token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "rejected invalid token",
						"request_id", requestcontext.RequestID(ctx),
						"error", err,
					)
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAgentID(ctx, agentID)))
		})
	}
}
