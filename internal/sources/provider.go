// Package sources gathers the market evidence a purchase evaluation needs:
// price samples from independent providers plus one product-quality and deal
// record. Providers are queried in parallel and individually expendable; the
// evaluation only fails when no price anchor at all can be obtained.
package sources

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "vouch/pkg/domain"
)

// PriceSample is one provider's observed price for an item.
type PriceSample struct {
	ProviderID string    `json:"provider_id"`
	Price      uint64    `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// ProductQuality is the fixed quality record for an item.
type ProductQuality struct {
	Rating      float64 `json:"rating"`       // 0-5 star average
	ReviewCount int     `json:"review_count"` // lifetime review volume
	ReturnRate  float64 `json:"return_rate"`  // percentage, 0-100
}

// DealMetadata adjusts the sticker price into an effective price. All values
// are non-negative; a missing record means zero adjustment.
type DealMetadata struct {
	Cashback    uint64 `json:"cashback"`
	Coupon      uint64 `json:"coupon"`
	ShippingFee uint64 `json:"shipping_fee"`
}

// Capabilities describes what a price provider supports.
type Capabilities struct {
	Name    string
	Version string
}

// PriceProvider is the interface every price source must implement. A
// provider that has no price for an item returns a ProviderError with
// CategoryUnavailable or CategoryNotFound rather than a zero sample.
type PriceProvider interface {
	// ID returns a unique identifier for this provider instance.
	ID() string

	// Capabilities returns what this provider supports.
	Capabilities() Capabilities

	// Quote returns the provider's current price for the item.
	Quote(ctx context.Context, itemID id.ItemID) (*PriceSample, error)

	// Health checks if the provider is reachable.
	Health(ctx context.Context) error
}

// QualityProvider supplies the product-quality record and deal metadata.
type QualityProvider interface {
	ID() string
	Quality(ctx context.Context, itemID id.ItemID) (*ProductQuality, error)
	Deal(ctx context.Context, itemID id.ItemID) (*DealMetadata, error)
}

// Registry maintains the configured price providers. Registration happens at
// startup; reads afterward are lock-free.
type Registry struct {
	providers map[string]PriceProvider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]PriceProvider)}
}

// Register adds a provider. Duplicate ids are a wiring bug.
func (r *Registry) Register(p PriceProvider) error {
	providerID := p.ID()
	if _, exists := r.providers[providerID]; exists {
		return fmt.Errorf("price provider %s already registered", providerID)
	}
	r.providers[providerID] = p
	r.order = append(r.order, providerID)
	return nil
}

// Get retrieves a provider by id.
func (r *Registry) Get(providerID string) (PriceProvider, bool) {
	p, ok := r.providers[providerID]
	return p, ok
}

// All returns the providers in registration order.
func (r *Registry) All() []PriceProvider {
	result := make([]PriceProvider, 0, len(r.order))
	for _, providerID := range r.order {
		result = append(result, r.providers[providerID])
	}
	return result
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// ProviderStatus reports one provider's reachability for the readiness probe.
type ProviderStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// CheckHealth probes every registered provider in parallel and reports
// per-provider status in registration order. The context bounds each probe.
func (r *Registry) CheckHealth(ctx context.Context) []ProviderStatus {
	statuses := make([]ProviderStatus, len(r.order))
	var wg sync.WaitGroup
	for i, providerID := range r.order {
		wg.Add(1)
		go func(i int, p PriceProvider) {
			defer wg.Done()
			caps := p.Capabilities()
			status := ProviderStatus{Name: caps.Name, Version: caps.Version, Healthy: true}
			if err := p.Health(ctx); err != nil {
				status.Healthy = false
				status.Error = err.Error()
			}
			statuses[i] = status
		}(i, r.providers[providerID])
	}
	wg.Wait()
	return statuses
}
