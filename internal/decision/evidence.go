package decision

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"vouch/internal/sources"
	"vouch/internal/trust"
	id "vouch/pkg/domain"
)

// SourceAggregator is the market-evidence dependency.
type SourceAggregator interface {
	Evaluate(ctx context.Context, itemID id.ItemID) (*sources.Aggregate, error)
}

// TrustScorer is the seller-trust dependency.
type TrustScorer interface {
	Seller(ctx context.Context, sellerID id.SellerID) (trust.Score, error)
}

// gatheredEvidence is the merged input set for one evaluation.
type gatheredEvidence struct {
	ReferencePrice uint64
	Quality        sources.ProductQuality
	Deal           sources.DealMetadata
	TrustScore     float64

	PriceLatency time.Duration
	TrustLatency time.Duration
}

// gatherEvidence fetches market data and seller trust in parallel with
// shared context cancellation. A sources failure (no price anchor) fails the
// whole gather; the trust path cannot fail softly either since an unknown
// seller already resolves to the neutral baseline.
func (s *Service) gatherEvidence(ctx context.Context, itemID id.ItemID, sellerID id.SellerID) (*gatheredEvidence, error) {
	ctx, cancel := context.WithTimeout(ctx, evidenceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	evidence := &gatheredEvidence{}

	g.Go(func() error {
		start := time.Now()
		aggregate, err := s.sources.Evaluate(ctx, itemID)
		evidence.PriceLatency = time.Since(start)
		s.metrics.ObserveEvidenceLatency("sources", evidence.PriceLatency)
		if err != nil {
			return err
		}
		evidence.ReferencePrice = aggregate.ReferencePrice()
		evidence.Quality = aggregate.Quality
		evidence.Deal = aggregate.Deal
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		score, err := s.trust.Seller(ctx, sellerID)
		evidence.TrustLatency = time.Since(start)
		s.metrics.ObserveEvidenceLatency("trust", evidence.TrustLatency)
		if err != nil {
			return err
		}
		evidence.TrustScore = score.Value
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evidence, nil
}
