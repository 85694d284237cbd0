package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	id "vouch/pkg/domain"
)

// HTTPPriceProvider queries a remote price feed over HTTP. The feed contract
// is GET {base}/price/{itemID} returning {"price": n, "available": bool}.
type HTTPPriceProvider struct {
	id      string
	baseURL string
	client  *http.Client
}

// NewHTTPPriceProvider constructs a provider for one feed endpoint. The
// aggregator applies the per-query timeout through the context, so the
// embedded client carries only a generous safety bound.
func NewHTTPPriceProvider(providerID, baseURL string, client *http.Client) *HTTPPriceProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPPriceProvider{id: providerID, baseURL: baseURL, client: client}
}

func (p *HTTPPriceProvider) ID() string { return p.id }

func (p *HTTPPriceProvider) Capabilities() Capabilities {
	return Capabilities{Name: p.id, Version: "v1"}
}

type priceFeedResponse struct {
	Price     uint64 `json:"price"`
	Available bool   `json:"available"`
}

func (p *HTTPPriceProvider) Quote(ctx context.Context, itemID id.ItemID) (*PriceSample, error) {
	endpoint := fmt.Sprintf("%s/price/%s", p.baseURL, url.PathEscape(itemID.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewProviderError(CategoryInternal, p.id, "build request", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewProviderError(CategoryTimeout, p.id, "quote timed out", err)
		}
		return nil, NewProviderError(CategoryUnavailable, p.id, "quote failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewProviderError(CategoryNotFound, p.id, "item not carried", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewProviderError(CategoryRateLimited, p.id, "rate limited", nil)
	case resp.StatusCode >= 500:
		return nil, NewProviderError(CategoryUnavailable, p.id, fmt.Sprintf("feed returned %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return nil, NewProviderError(CategoryBadData, p.id, fmt.Sprintf("feed returned %d", resp.StatusCode), nil)
	}

	var feed priceFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, NewProviderError(CategoryBadData, p.id, "malformed feed response", err)
	}
	if !feed.Available || feed.Price == 0 {
		return nil, NewProviderError(CategoryUnavailable, p.id, "no price for item", nil)
	}
	return &PriceSample{ProviderID: p.id, Price: feed.Price, ObservedAt: time.Now()}, nil
}

func (p *HTTPPriceProvider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return NewProviderError(CategoryUnavailable, p.id, "health check failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewProviderError(CategoryUnavailable, p.id, fmt.Sprintf("health returned %d", resp.StatusCode), nil)
	}
	return nil
}
