package sources

import (
	"context"
	"time"

	id "vouch/pkg/domain"
)

// StaticPriceProvider serves deterministic prices from a fixed table. Used
// for local development and tests; a configurable latency mimics real-world
// feed calls.
type StaticPriceProvider struct {
	Name    string
	Prices  map[id.ItemID]uint64
	Latency time.Duration
}

func (p *StaticPriceProvider) ID() string { return p.Name }

func (p *StaticPriceProvider) Capabilities() Capabilities {
	return Capabilities{Name: p.Name, Version: "static"}
}

func (p *StaticPriceProvider) Quote(ctx context.Context, itemID id.ItemID) (*PriceSample, error) {
	if p.Latency > 0 {
		select {
		case <-time.After(p.Latency):
		case <-ctx.Done():
			return nil, NewProviderError(CategoryTimeout, p.Name, "quote timed out", ctx.Err())
		}
	}
	price, ok := p.Prices[itemID]
	if !ok || price == 0 {
		return nil, NewProviderError(CategoryUnavailable, p.Name, "no price for item", nil)
	}
	return &PriceSample{ProviderID: p.Name, Price: price, ObservedAt: time.Now()}, nil
}

func (p *StaticPriceProvider) Health(context.Context) error { return nil }

// StaticQualityProvider serves fixed quality and deal records.
type StaticQualityProvider struct {
	Name      string
	Qualities map[id.ItemID]ProductQuality
	Deals     map[id.ItemID]DealMetadata
}

func (p *StaticQualityProvider) ID() string { return p.Name }

func (p *StaticQualityProvider) Quality(_ context.Context, itemID id.ItemID) (*ProductQuality, error) {
	if quality, ok := p.Qualities[itemID]; ok {
		return &quality, nil
	}
	return nil, NewProviderError(CategoryNotFound, p.Name, "no quality record", nil)
}

func (p *StaticQualityProvider) Deal(_ context.Context, itemID id.ItemID) (*DealMetadata, error) {
	if deal, ok := p.Deals[itemID]; ok {
		return &deal, nil
	}
	return nil, NewProviderError(CategoryNotFound, p.Name, "no deal record", nil)
}
