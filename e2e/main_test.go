package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

func TestPurchaseFlow(t *testing.T) {
	baseURL := os.Getenv("VOUCH_E2E_BASE_URL")
	if baseURL == "" {
		t.Skip("VOUCH_E2E_BASE_URL not set, skipping e2e suite")
	}
	signingKey := envOr("VOUCH_E2E_JWT_KEY", "dev-secret-key-change-in-production")
	issuer := envOr("VOUCH_E2E_JWT_ISSUER", "vouch")
	audience := envOr("VOUCH_E2E_JWT_AUDIENCE", "vouch-agents")

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, NewTestContext(baseURL, []byte(signingKey), issuer, audience))
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("e2e suite failed")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
