package httpapi_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/decision"
	decisionhandler "vouch/internal/decision/handler"
	httpapi "vouch/internal/http"
	"vouch/internal/ledger"
	ledgerhandler "vouch/internal/ledger/handler"
	"vouch/internal/ledger/store/memory"
	"vouch/internal/sources"
	id "vouch/pkg/domain"
)

type decisionStub struct{}

func (decisionStub) Evaluate(context.Context, id.ItemID, uint64, id.SellerID) (*decision.Decision, error) {
	return &decision.Decision{}, nil
}

type providerStatusStub struct {
	statuses []sources.ProviderStatus
}

func (s *providerStatusStub) CheckHealth(context.Context) []sources.ProviderStatus {
	return s.statuses
}

func newRouter(providers httpapi.HealthChecker) http.Handler {
	log := slog.New(slog.DiscardHandler)
	ledgerService := ledger.NewService(
		memory.NewRequestStore(),
		memory.NewConfidentialStore(),
		memory.NewReviewStore(),
		memory.NewIdentityStore("oracle", "owner"),
		nil, nil, nil,
	)
	return httpapi.NewRouter(httpapi.Deps{
		Ledger:    ledgerhandler.New(ledgerService, log),
		Decision:  decisionhandler.New(decisionStub{}, log),
		Providers: providers,
		Logger:    log,
	})
}

func getJSON(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := getJSON(t, newRouter(nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyz_NoProvidersConfigured(t *testing.T) {
	rec, body := getJSON(t, newRouter(nil), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyz_AllProvidersHealthy(t *testing.T) {
	providers := &providerStatusStub{statuses: []sources.ProviderStatus{
		{Name: "feed-a", Version: "v1", Healthy: true},
		{Name: "feed-b", Version: "v1", Healthy: true},
	}}

	rec, body := getJSON(t, newRouter(providers), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["providers"], 2)
}

func TestReadyz_UnreachableProviderDegrades(t *testing.T) {
	providers := &providerStatusStub{statuses: []sources.ProviderStatus{
		{Name: "feed-a", Version: "v1", Healthy: true},
		{Name: "feed-down", Version: "v1", Healthy: false, Error: "connection refused"},
	}}

	rec, body := getJSON(t, newRouter(providers), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}
