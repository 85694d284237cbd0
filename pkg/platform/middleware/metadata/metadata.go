// Package metadata captures client transport metadata (IP, client software)
// for event enrichment and logs.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"vouch/pkg/requestcontext"
)

// ClientMetadata extracts the client IP and a normalized description of the
// calling software from the request and adds both to the context. Apply early
// in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))
		ctx = requestcontext.WithClientAgent(ctx, NormalizeUserAgent(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NormalizeUserAgent reduces a raw User-Agent header to "name/version os".
// Unparseable values pass through truncated so events never carry an
// unbounded header.
func NormalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name != "" {
		parts := name
		if version != "" {
			parts += "/" + version
		}
		if os := ua.OS(); os != "" {
			parts += " " + os
		}
		return parts
	}
	if len(raw) > 64 {
		return raw[:64]
	}
	return raw
}

// ClientIPFromRequest extracts the real client IP, handling proxies and load
// balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return ""
}
