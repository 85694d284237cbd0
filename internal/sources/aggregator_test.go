package sources_test

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/sources"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

const testItem = id.ItemID("widget-9")

type failingProvider struct {
	name     string
	category sources.ErrorCategory
	delay    time.Duration
}

func (p *failingProvider) ID() string { return p.name }
func (p *failingProvider) Capabilities() sources.Capabilities {
	return sources.Capabilities{Name: p.name, Version: "test"}
}
func (p *failingProvider) Health(context.Context) error { return nil }
func (p *failingProvider) Quote(ctx context.Context, _ id.ItemID) (*sources.PriceSample, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, sources.NewProviderError(sources.CategoryTimeout, p.name, "timed out", ctx.Err())
		}
	}
	return nil, sources.NewProviderError(p.category, p.name, "unavailable", nil)
}

func staticProvider(name string, price uint64) *sources.StaticPriceProvider {
	return &sources.StaticPriceProvider{Name: name, Prices: map[id.ItemID]uint64{testItem: price}}
}

func newRegistry(t *testing.T, providers ...sources.PriceProvider) *sources.Registry {
	t.Helper()
	registry := sources.NewRegistry()
	for _, p := range providers {
		require.NoError(t, registry.Register(p))
	}
	return registry
}

func TestEvaluate_GathersAllProviders(t *testing.T) {
	registry := newRegistry(t,
		staticProvider("feed-a", 1049),
		staticProvider("feed-b", 1095),
		staticProvider("feed-c", 1147),
	)
	quality := &sources.StaticQualityProvider{
		Name:      "catalog",
		Qualities: map[id.ItemID]sources.ProductQuality{testItem: {Rating: 4.7, ReviewCount: 8500, ReturnRate: 3}},
		Deals:     map[id.ItemID]sources.DealMetadata{testItem: {Cashback: 20, ShippingFee: 15}},
	}
	agg := sources.NewAggregator(registry, quality, nil, time.Second, nil, nil)

	result, err := agg.Evaluate(context.Background(), testItem)
	require.NoError(t, err)
	assert.Len(t, result.Samples, 3)
	assert.Equal(t, uint64(1095), result.ReferencePrice())
	assert.InDelta(t, 4.7, result.Quality.Rating, 1e-9)
	assert.Equal(t, uint64(20), result.Deal.Cashback)
	assert.Equal(t, uint64(15), result.Deal.ShippingFee)
}

func TestEvaluate_FiltersFailedProviders(t *testing.T) {
	registry := newRegistry(t,
		staticProvider("feed-a", 1049),
		&failingProvider{name: "feed-down", category: sources.CategoryUnavailable},
		&failingProvider{name: "feed-slow", category: sources.CategoryTimeout, delay: time.Second},
		staticProvider("feed-b", 1147),
	)
	agg := sources.NewAggregator(registry, nil, nil, 50*time.Millisecond, nil, nil)

	start := time.Now()
	result, err := agg.Evaluate(context.Background(), testItem)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "slow provider must not block the others")
	assert.Len(t, result.Samples, 2)
	assert.Equal(t, uint64(1049), result.ReferencePrice())
}

func TestEvaluate_NoSources(t *testing.T) {
	registry := newRegistry(t,
		&failingProvider{name: "feed-a", category: sources.CategoryUnavailable},
		&failingProvider{name: "feed-b", category: sources.CategoryNotFound},
	)
	agg := sources.NewAggregator(registry, nil, nil, time.Second, nil, nil)

	_, err := agg.Evaluate(context.Background(), testItem)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNoSources))
	assert.ErrorIs(t, err, sources.ErrNoSources)
}

func TestEvaluate_MissingQualityDefaultsToZero(t *testing.T) {
	registry := newRegistry(t, staticProvider("feed-a", 1049))
	agg := sources.NewAggregator(registry, nil, nil, time.Second, nil, nil)

	result, err := agg.Evaluate(context.Background(), testItem)
	require.NoError(t, err)
	assert.Zero(t, result.Quality)
	assert.Zero(t, result.Deal)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		prices []uint64
		want   uint64
	}{
		{"empty", nil, 0},
		{"single", []uint64{42}, 42},
		{"odd", []uint64{1147, 1049, 1095}, 1095},
		{"even takes lower middle", []uint64{40, 10, 30, 20}, 20},
		{"two elements", []uint64{7, 3}, 3},
		{"duplicates", []uint64{5, 5, 5, 9}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sources.Median(tt.prices))
		})
	}
}

// The median must always be an actually observed price, whatever the count.
func TestMedian_AlwaysObserved(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 1; n <= 20; n++ {
		prices := make([]uint64, n)
		for i := range prices {
			prices[i] = uint64(rng.Intn(10000))
		}
		m := sources.Median(prices)
		assert.True(t, slices.Contains(prices, m), "median %d not in %v", m, prices)
	}
}

func TestHTTPPriceProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/price/widget-9":
			w.Write([]byte(`{"price": 1095, "available": true}`))
		case "/price/ghost":
			w.WriteHeader(http.StatusNotFound)
		case "/price/sold-out":
			w.Write([]byte(`{"price": 0, "available": false}`))
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	provider := sources.NewHTTPPriceProvider("feed-http", server.URL, server.Client())
	ctx := context.Background()

	sample, err := provider.Quote(ctx, "widget-9")
	require.NoError(t, err)
	assert.Equal(t, uint64(1095), sample.Price)
	assert.Equal(t, "feed-http", sample.ProviderID)

	_, err = provider.Quote(ctx, "ghost")
	assert.Equal(t, sources.CategoryNotFound, sources.CategoryOf(err))

	_, err = provider.Quote(ctx, "sold-out")
	assert.Equal(t, sources.CategoryUnavailable, sources.CategoryOf(err))

	_, err = provider.Quote(ctx, "broken")
	assert.Equal(t, sources.CategoryUnavailable, sources.CategoryOf(err))

	assert.NoError(t, provider.Health(ctx))

	var pe *sources.ProviderError
	_, err = provider.Quote(ctx, "ghost")
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "feed-http", pe.ProviderID)
}

type countingFailingProvider struct {
	failingProvider
	calls atomic.Int64
}

func (p *countingFailingProvider) Quote(ctx context.Context, itemID id.ItemID) (*sources.PriceSample, error) {
	p.calls.Add(1)
	return p.failingProvider.Quote(ctx, itemID)
}

func TestEvaluate_OpensCircuitOnRepeatedFailures(t *testing.T) {
	broken := &countingFailingProvider{
		failingProvider: failingProvider{name: "feed-down", category: sources.CategoryUnavailable},
	}
	registry := newRegistry(t, staticProvider("feed-a", 1049), broken)
	agg := sources.NewAggregator(registry, nil, nil, time.Second, nil, nil)

	// Five consecutive failures open the circuit.
	for range 5 {
		result, err := agg.Evaluate(context.Background(), testItem)
		require.NoError(t, err)
		assert.Len(t, result.Samples, 1)
	}
	assert.EqualValues(t, 5, broken.calls.Load())

	// Open circuit: the provider is skipped, the healthy feed still answers.
	for range 3 {
		result, err := agg.Evaluate(context.Background(), testItem)
		require.NoError(t, err)
		assert.Len(t, result.Samples, 1)
		assert.Equal(t, uint64(1049), result.ReferencePrice())
	}
	assert.EqualValues(t, 5, broken.calls.Load())
}

type unreachableProvider struct {
	name string
}

func (p *unreachableProvider) ID() string { return p.name }
func (p *unreachableProvider) Capabilities() sources.Capabilities {
	return sources.Capabilities{Name: p.name, Version: "test"}
}
func (p *unreachableProvider) Health(context.Context) error {
	return errors.New("connection refused")
}
func (p *unreachableProvider) Quote(ctx context.Context, _ id.ItemID) (*sources.PriceSample, error) {
	return nil, sources.NewProviderError(sources.CategoryUnavailable, p.name, "unavailable", nil)
}

func TestRegistry_CheckHealth(t *testing.T) {
	registry := newRegistry(t,
		staticProvider("feed-a", 1049),
		&unreachableProvider{name: "feed-down"},
	)

	statuses := registry.CheckHealth(context.Background())
	require.Len(t, statuses, 2)

	assert.Equal(t, "feed-a", statuses[0].Name)
	assert.Equal(t, "static", statuses[0].Version)
	assert.True(t, statuses[0].Healthy)
	assert.Empty(t, statuses[0].Error)

	assert.Equal(t, "feed-down", statuses[1].Name)
	assert.False(t, statuses[1].Healthy)
	assert.Equal(t, "connection refused", statuses[1].Error)
}

func TestRegistry_CheckHealthEmpty(t *testing.T) {
	statuses := sources.NewRegistry().CheckHealth(context.Background())
	assert.Empty(t, statuses)
}
