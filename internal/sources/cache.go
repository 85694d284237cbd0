package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "vouch/pkg/domain"
)

// SampleCache is a read-through cache for per-provider price samples. It is
// an optimization only: every miss and every redis failure falls through to
// the provider, never into the caller's error path.
type SampleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSampleCache creates a cache over the given client. A nil client yields
// a cache that always misses.
func NewSampleCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SampleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SampleCache{client: client, ttl: ttl, logger: logger}
}

func sampleKey(providerID string, itemID id.ItemID) string {
	return fmt.Sprintf("vouch:price:%s:%s", providerID, itemID)
}

// Find returns the cached sample for (provider, item), or nil on miss.
func (c *SampleCache) Find(ctx context.Context, providerID string, itemID id.ItemID) *PriceSample {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, sampleKey(providerID, itemID)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "price cache read failed", "provider", providerID, "error", err)
		}
		return nil
	}
	var sample PriceSample
	if err := json.Unmarshal(raw, &sample); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "price cache entry corrupt", "provider", providerID, "error", err)
		}
		return nil
	}
	return &sample
}

// Save stores a sample with the cache TTL. Failures are logged and dropped.
func (c *SampleCache) Save(ctx context.Context, sample *PriceSample, itemID id.ItemID) {
	if c == nil || c.client == nil || sample == nil {
		return
	}
	raw, err := json.Marshal(sample)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, sampleKey(sample.ProviderID, itemID), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "price cache write failed", "provider", sample.ProviderID, "error", err)
	}
}
