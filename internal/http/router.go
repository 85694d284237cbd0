// Package httpapi assembles the public HTTP surface: the ledger routes, the
// decision route, and the operational endpoints. Transport concerns stay
// here; business rules live in the service packages.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	decisionhandler "vouch/internal/decision/handler"
	ledgerhandler "vouch/internal/ledger/handler"
	"vouch/internal/sources"
	"vouch/pkg/platform/middleware/auth"
	"vouch/pkg/platform/middleware/metadata"
	"vouch/pkg/platform/middleware/requestid"
	"vouch/pkg/platform/middleware/requesttime"
)

// readyProbeTimeout bounds the per-request provider health sweep.
const readyProbeTimeout = 2 * time.Second

// HealthChecker reports per-provider reachability for the readiness probe.
type HealthChecker interface {
	CheckHealth(ctx context.Context) []sources.ProviderStatus
}

// Deps carries everything the router needs. All fields are required except
// Verifier and Providers; a nil Verifier leaves the API unauthenticated,
// which is only acceptable in local development, and a nil Providers makes
// the readiness probe unconditionally ready.
type Deps struct {
	Ledger    *ledgerhandler.Handler
	Decision  *decisionhandler.Handler
	Verifier  auth.TokenVerifier
	Providers HealthChecker
	Logger    *slog.Logger
}

// NewRouter wires middleware and routes. Every API route runs behind the
// request id, request time, and client metadata middleware so handlers and
// events see a uniform context.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady(deps.Providers))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		if deps.Verifier != nil {
			api.Use(auth.RequireAgent(deps.Verifier, deps.Logger))
		}
		deps.Ledger.Register(api)
		deps.Decision.Register(api)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type readyResponse struct {
	Status    string                   `json:"status"`
	Providers []sources.ProviderStatus `json:"providers,omitempty"`
}

// handleReady sweeps the price providers and reports 503 while any of them
// is unreachable, so orchestrators hold traffic until the feeds respond.
func handleReady(providers HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if providers == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readyProbeTimeout)
		defer cancel()
		statuses := providers.CheckHealth(ctx)

		resp := readyResponse{Status: "ok", Providers: statuses}
		code := http.StatusOK
		for _, s := range statuses {
			if !s.Healthy {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				break
			}
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
