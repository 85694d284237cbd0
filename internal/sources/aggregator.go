package sources

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"vouch/internal/sources/metrics"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/circuit"
)

// Aggregate is the evidence set for one item.
type Aggregate struct {
	Samples []PriceSample
	Quality ProductQuality
	Deal    DealMetadata
}

// ReferencePrice is the median of the gathered samples.
func (a *Aggregate) ReferencePrice() uint64 {
	prices := make([]uint64, 0, len(a.Samples))
	for _, sample := range a.Samples {
		prices = append(prices, sample.Price)
	}
	return Median(prices)
}

// Aggregator fans a price query out to every registered provider and merges
// the survivors. Provider failures reduce the candidate set, never abort the
// aggregation; only an empty survivor set is an error.
type Aggregator struct {
	registry *Registry
	quality  QualityProvider
	cache    *SampleCache
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	breakerMu sync.Mutex
	breakers  map[string]*breakerState
}

// breakerState pairs a provider's circuit breaker with its next allowed
// probe time. While the circuit is open the provider is skipped except for
// one probe per probeInterval; probe successes close the circuit again.
type breakerState struct {
	breaker   *circuit.Breaker
	nextProbe time.Time
}

const probeInterval = 30 * time.Second

// NewAggregator constructs an aggregator. timeout bounds each provider
// query; the caller's context bounds the whole aggregation.
func NewAggregator(registry *Registry, quality QualityProvider, cache *SampleCache, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Aggregator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Aggregator{
		registry: registry,
		quality:  quality,
		cache:    cache,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("vouch/sources"),
		breakers: make(map[string]*breakerState),
	}
}

// Evaluate gathers price samples and the quality record for an item. Every
// provider is queried concurrently; zero or unavailable quotes are filtered
// out. Returns NoSources only when the filtered set is empty.
func (a *Aggregator) Evaluate(ctx context.Context, itemID id.ItemID) (*Aggregate, error) {
	ctx, span := a.tracer.Start(ctx, "sources.evaluate",
		trace.WithAttributes(attribute.String("item_id", itemID.String())))
	defer span.End()

	providers := a.registry.All()
	samples := make([]*PriceSample, len(providers))
	result := &Aggregate{}

	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range providers {
		g.Go(func() error {
			samples[i] = a.querySample(gctx, provider, itemID)
			return nil
		})
	}
	g.Go(func() error {
		result.Quality, result.Deal = a.queryQuality(gctx, itemID)
		return nil
	})
	// Workers never return errors; a failed provider only leaves a nil slot.
	_ = g.Wait()

	for _, sample := range samples {
		if sample != nil {
			result.Samples = append(result.Samples, *sample)
		}
	}
	span.SetAttributes(attribute.Int("sample_count", len(result.Samples)))
	if len(result.Samples) == 0 {
		a.metrics.IncNoSources()
		return nil, dErrors.Wrap(dErrors.CodeNoSources, "every price provider unavailable", ErrNoSources)
	}
	return result, nil
}

// querySample resolves one provider's price through the cache. Any failure
// or zero quote filters the provider out of this aggregation.
func (a *Aggregator) querySample(ctx context.Context, provider PriceProvider, itemID id.ItemID) *PriceSample {
	providerID := provider.ID()
	if cached := a.cache.Find(ctx, providerID, itemID); cached != nil {
		a.metrics.ObserveQuery(providerID, "cache_hit", 0)
		return cached
	}

	state := a.breakerFor(providerID)
	if a.skipOpenCircuit(state) {
		a.metrics.ObserveQuery(providerID, "circuit_open", 0)
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	sample, err := provider.Quote(qctx, itemID)
	elapsed := time.Since(start)
	if err != nil || sample == nil || sample.Price == 0 {
		if _, change := state.breaker.RecordFailure(); change.Opened {
			a.scheduleProbe(state)
			if a.logger != nil {
				a.logger.WarnContext(ctx, "price feed circuit opened", "provider", providerID)
			}
		}
		a.metrics.ObserveQuery(providerID, "filtered", elapsed)
		if err != nil && a.logger != nil {
			a.logger.DebugContext(ctx, "price provider filtered",
				"provider", providerID,
				"item_id", itemID,
				"category", CategoryOf(err),
				"error", err,
			)
		}
		return nil
	}

	if _, change := state.breaker.RecordSuccess(); change.Closed && a.logger != nil {
		a.logger.InfoContext(ctx, "price feed circuit closed", "provider", providerID)
	}
	a.metrics.ObserveQuery(providerID, "ok", elapsed)
	a.cache.Save(ctx, sample, itemID)
	return sample
}

func (a *Aggregator) breakerFor(providerID string) *breakerState {
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()
	state, ok := a.breakers[providerID]
	if !ok {
		state = &breakerState{breaker: circuit.New(providerID)}
		a.breakers[providerID] = state
	}
	return state
}

func (a *Aggregator) scheduleProbe(state *breakerState) {
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()
	state.nextProbe = time.Now().Add(probeInterval)
}

// skipOpenCircuit reports whether the provider should be skipped this round.
// An open circuit lets one probe through per probeInterval.
func (a *Aggregator) skipOpenCircuit(state *breakerState) bool {
	if !state.breaker.IsOpen() {
		return false
	}
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()
	now := time.Now()
	if now.Before(state.nextProbe) {
		return true
	}
	state.nextProbe = now.Add(probeInterval)
	return false
}

// queryQuality fetches the quality record and deal metadata. Both default to
// zero values on failure: missing quality data degrades the score, missing
// deal data means no price adjustment.
func (a *Aggregator) queryQuality(ctx context.Context, itemID id.ItemID) (ProductQuality, DealMetadata) {
	var quality ProductQuality
	var deal DealMetadata
	if a.quality == nil {
		return quality, deal
	}

	qctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if q, err := a.quality.Quality(qctx, itemID); err == nil && q != nil {
		quality = *q
	} else if err != nil && a.logger != nil {
		a.logger.DebugContext(ctx, "quality provider unavailable", "item_id", itemID, "error", err)
	}
	if d, err := a.quality.Deal(qctx, itemID); err == nil && d != nil {
		deal = *d
	}
	return quality, deal
}

// Median returns the middle price, taking the lower of the two middle
// elements for even counts so the result is always an actually observed
// price. Zero for an empty list.
func Median(prices []uint64) uint64 {
	if len(prices) == 0 {
		return 0
	}
	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	return sorted[(len(sorted)-1)/2]
}
