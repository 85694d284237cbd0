// Package e2e drives a running vouch server through its public HTTP API.
//
// The suite is black box: it talks to the address in VOUCH_E2E_BASE_URL and
// mints agent tokens with the signing key in VOUCH_E2E_JWT_KEY, which must
// match the server's key. Without a base URL the suite skips. The scenarios
// price the demo-item catalog, so start the server with VOUCH_DEV_FEEDS=true
// unless external feeds carry the same items.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext carries per-scenario state: the acting agent, the last HTTP
// response, and ids captured from earlier steps.
type TestContext struct {
	BaseURL    string
	SigningKey []byte
	Issuer     string
	Audience   string

	client       *http.Client
	agentID      string
	lastStatus   int
	lastBody     map[string]any
	lastRequest  string
	capturedVars map[string]string
}

// NewTestContext builds a context for one scenario.
func NewTestContext(baseURL string, signingKey []byte, issuer, audience string) *TestContext {
	return &TestContext{
		BaseURL:      baseURL,
		SigningKey:   signingKey,
		Issuer:       issuer,
		Audience:     audience,
		client:       &http.Client{Timeout: 10 * time.Second},
		capturedVars: make(map[string]string),
	}
}

// ActAs switches the authenticated agent for subsequent requests. An empty
// id sends requests without a bearer token.
func (tc *TestContext) ActAs(agentID string) {
	tc.agentID = agentID
}

// Capture stores a value from a response for later steps, e.g. the request
// id returned when submitting an intent.
func (tc *TestContext) Capture(name, value string) {
	tc.capturedVars[name] = value
}

// Captured returns a previously stored value.
func (tc *TestContext) Captured(name string) (string, error) {
	v, ok := tc.capturedVars[name]
	if !ok {
		return "", fmt.Errorf("no captured value named %q", name)
	}
	return v, nil
}

func (tc *TestContext) mintToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tc.agentID,
		Issuer:    tc.Issuer,
		Audience:  jwt.ClaimStrings{tc.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.SigningKey)
}

// Do issues a request against the server and records status and decoded
// body for assertion steps.
func (tc *TestContext) Do(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.agentID != "" {
		token, err := tc.mintToken()
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastRequest = method + " " + path
	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(raw) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			tc.lastBody = decoded
		}
	}
	return nil
}

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("%s returned no JSON body", tc.lastRequest)
	}
	v, ok := tc.lastBody[field]
	if !ok {
		return nil, fmt.Errorf("%s response has no field %q", tc.lastRequest, field)
	}
	return v, nil
}

// AssertStatus fails when the last response status differs.
func (tc *TestContext) AssertStatus(expected int) error {
	if tc.lastStatus != expected {
		return fmt.Errorf("%s returned %d, want %d (body %v)", tc.lastRequest, tc.lastStatus, expected, tc.lastBody)
	}
	return nil
}
