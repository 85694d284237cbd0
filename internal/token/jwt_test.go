package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("test-signing-key", "vouch", "vouch-agents")
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.Issue("agent-7", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	agentID, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, id.AgentID("agent-7"), agentID)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	svc := newTestService()

	tokenString, err := svc.Issue("agent-7", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
	assert.Contains(t, err.Error(), "expired")
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	tokenString, err := newTestService().Issue("agent-7", time.Minute)
	require.NoError(t, err)

	other := NewService("different-key", "vouch", "vouch-agents")
	_, err = other.Verify(tokenString)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}

func TestVerify_RejectsGarbage(t *testing.T) {
	_, err := newTestService().Verify("not.a.jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthenticated))
}
