package main

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/platform/config"
	"vouch/internal/sources"
)

func TestRegisterFeeds_RefusesUnconfigured(t *testing.T) {
	registry := sources.NewRegistry()

	_, err := registerFeeds(registry, config.Sources{}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Zero(t, registry.Len())
}

func TestRegisterFeeds_DevFallbackOptIn(t *testing.T) {
	registry := sources.NewRegistry()

	quality, err := registerFeeds(registry, config.Sources{DevFallback: true}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NotNil(t, quality)
	assert.Equal(t, 3, registry.Len())
}

func TestRegisterFeeds_ExternalFeeds(t *testing.T) {
	registry := sources.NewRegistry()
	cfg := config.Sources{
		Feeds:           []string{"retail-a=http://feeds.internal/a", "retail-b=http://feeds.internal/b"},
		ProviderTimeout: time.Second,
	}

	quality, err := registerFeeds(registry, cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NotNil(t, quality)
	assert.Equal(t, 2, registry.Len())
}

func TestRegisterFeeds_MalformedEntry(t *testing.T) {
	registry := sources.NewRegistry()

	_, err := registerFeeds(registry, config.Sources{Feeds: []string{"missing-url"}}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-url")
}
