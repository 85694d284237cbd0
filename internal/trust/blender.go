// Package trust computes seller trust scores by blending a stored reputation
// baseline with verified buyer review statistics.
package trust

import (
	"context"
	"log/slog"

	"vouch/internal/ledger"
	id "vouch/pkg/domain"
)

// NeutralBaseline is assigned to sellers with no stored reputation. Novel
// sellers start neutral rather than blocked.
const NeutralBaseline = 0.5

// maxReviewWeight caps review influence at 30% of the final score so a
// handful of reviews cannot dominate a long sales history.
const maxReviewWeight = 0.3

// reviewWeightStep is the per-review growth of the blend weight.
const reviewWeightStep = 0.1

// BaselineStore holds per-seller reputation baselines in [0,1].
type BaselineStore interface {
	// Baseline returns the stored baseline and whether one exists.
	Baseline(ctx context.Context, sellerID id.SellerID) (float64, bool, error)

	// SetBaseline stores a baseline, clamped to [0,1] by the caller.
	SetBaseline(ctx context.Context, sellerID id.SellerID, baseline float64) error
}

// ReviewStatsSource supplies aggregated review statistics per seller. The
// ledger service implements it.
type ReviewStatsSource interface {
	SellerReviewStats(ctx context.Context, sellerID id.SellerID) (ledger.ReviewStats, error)
}

// Score is the blended trust result for a seller.
type Score struct {
	// Value is the final trust score in [0,1].
	Value float64

	// Baseline is the stored (or neutral) starting reputation.
	Baseline float64

	// Weight is the review blend weight actually applied.
	Weight float64

	// Stats are the review statistics that produced the blend.
	Stats ledger.ReviewStats
}

// Blender blends baselines with review evidence.
type Blender struct {
	baselines BaselineStore
	reviews   ReviewStatsSource
	logger    *slog.Logger
}

// NewBlender constructs a trust blender.
func NewBlender(baselines BaselineStore, reviews ReviewStatsSource, logger *slog.Logger) *Blender {
	return &Blender{baselines: baselines, reviews: reviews, logger: logger}
}

// Seller computes the trust score for a seller.
//
// With n > 0 reviews: w = min(n × 0.1, 0.3), reviewScore = overall/5,
// final = baseline·(1−w) + reviewScore·w. No reviews yields the baseline
// unchanged; an unknown seller starts from the neutral baseline.
func (b *Blender) Seller(ctx context.Context, sellerID id.SellerID) (Score, error) {
	baseline := NeutralBaseline
	if b.baselines != nil {
		stored, ok, err := b.baselines.Baseline(ctx, sellerID)
		if err != nil {
			return Score{}, err
		}
		if ok {
			baseline = stored
		}
	}

	stats, err := b.reviews.SellerReviewStats(ctx, sellerID)
	if err != nil {
		return Score{}, err
	}

	score := Score{Value: baseline, Baseline: baseline, Stats: stats}
	if stats.Count > 0 {
		score.Weight = BlendWeight(stats.Count)
		reviewScore := stats.Overall / 5
		score.Value = baseline*(1-score.Weight) + reviewScore*score.Weight
	}

	if b.logger != nil {
		b.logger.DebugContext(ctx, "seller trust computed",
			"seller_id", sellerID,
			"baseline", baseline,
			"review_count", stats.Count,
			"score", score.Value,
		)
	}
	return score, nil
}

// BlendWeight is the review influence for a given review count:
// monotonically non-decreasing, capped at 0.3.
func BlendWeight(reviewCount int) float64 {
	w := float64(reviewCount) * reviewWeightStep
	if w > maxReviewWeight {
		return maxReviewWeight
	}
	return w
}
