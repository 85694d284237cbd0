package trust

import (
	"context"
	"sync"

	id "vouch/pkg/domain"
)

// MemoryBaselineStore is the in-memory baseline store. Baselines are
// operator-seeded configuration, not request-path state, so a map under a
// mutex is sufficient at any realistic seller count.
type MemoryBaselineStore struct {
	mu        sync.RWMutex
	baselines map[id.SellerID]float64
}

// NewMemoryBaselineStore constructs a store, optionally pre-seeded.
func NewMemoryBaselineStore(seed map[id.SellerID]float64) *MemoryBaselineStore {
	baselines := make(map[id.SellerID]float64, len(seed))
	for sellerID, baseline := range seed {
		baselines[sellerID] = clamp01(baseline)
	}
	return &MemoryBaselineStore{baselines: baselines}
}

func (s *MemoryBaselineStore) Baseline(_ context.Context, sellerID id.SellerID) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	baseline, ok := s.baselines[sellerID]
	return baseline, ok, nil
}

func (s *MemoryBaselineStore) SetBaseline(_ context.Context, sellerID id.SellerID, baseline float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[sellerID] = clamp01(baseline)
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
