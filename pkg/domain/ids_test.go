package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vouch/pkg/domain-errors"
)

func TestParseAgentID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAgentID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects whitespace-only string", func(t *testing.T) {
		_, err := ParseAgentID("   ")
		require.Error(t, err)
	})

	t.Run("rejects embedded whitespace", func(t *testing.T) {
		_, err := ParseAgentID("agent one")
		require.Error(t, err)
	})

	t.Run("rejects over-long ids", func(t *testing.T) {
		_, err := ParseAgentID(strings.Repeat("a", 129))
		require.Error(t, err)
	})

	t.Run("trims and accepts a valid id", func(t *testing.T) {
		agentID, err := ParseAgentID("  agent-7  ")
		require.NoError(t, err)
		assert.Equal(t, AgentID("agent-7"), agentID)
	})
}

func TestParseRequestID(t *testing.T) {
	valid := strings.Repeat("ab", 32)

	t.Run("accepts 64 hex characters", func(t *testing.T) {
		requestID, err := ParseRequestID(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, requestID.String())
	})

	t.Run("lowercases input", func(t *testing.T) {
		requestID, err := ParseRequestID(strings.ToUpper(valid))
		require.NoError(t, err)
		assert.Equal(t, valid, requestID.String())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseRequestID(valid[:62])
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-hex characters", func(t *testing.T) {
		_, err := ParseRequestID(strings.Repeat("zz", 32))
		require.Error(t, err)
	})
}

func TestParseItemID(t *testing.T) {
	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseItemID(" ")
		require.Error(t, err)
	})

	t.Run("rejects over-long", func(t *testing.T) {
		_, err := ParseItemID(strings.Repeat("x", 257))
		require.Error(t, err)
	})

	t.Run("accepts arbitrary marketplace skus", func(t *testing.T) {
		itemID, err := ParseItemID("B0C12345/variant-3")
		require.NoError(t, err)
		assert.Equal(t, ItemID("B0C12345/variant-3"), itemID)
	})
}

func TestParseIntentHash(t *testing.T) {
	valid := strings.Repeat("4f", 32)

	t.Run("round-trips through Bytes", func(t *testing.T) {
		hash, err := ParseIntentHash(valid)
		require.NoError(t, err)
		assert.Len(t, hash.Bytes(), 32)
	})

	t.Run("rejects truncated digests", func(t *testing.T) {
		_, err := ParseIntentHash(valid[:40])
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
