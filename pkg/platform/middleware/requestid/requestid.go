// Package requestid assigns a correlation id to every request.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"vouch/pkg/requestcontext"
)

// Header is the correlation header honored on ingress and set on egress.
const Header = "X-Request-ID"

// Middleware reuses an inbound X-Request-ID when present, otherwise assigns a
// fresh UUID, and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
