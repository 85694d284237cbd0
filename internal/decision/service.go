package decision

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/decision/metrics"
	id "vouch/pkg/domain"
)

const evidenceTimeout = 5 * time.Second

// Service orchestrates one evaluation: gather market evidence and seller
// trust in parallel, then run the pure scoring. Stateless per call.
type Service struct {
	sources SourceAggregator
	trust   TrustScorer
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewService constructs the decision service.
func NewService(sources SourceAggregator, trust TrustScorer, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		sources: sources,
		trust:   trust,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("vouch/decision"),
	}
}

// Evaluate produces a Decision for a proposed purchase. It never fails open:
// when no reference price can be computed the evaluation errors instead of
// approving.
func (s *Service) Evaluate(ctx context.Context, itemID id.ItemID, proposedPrice uint64, sellerID id.SellerID) (*Decision, error) {
	ctx, span := s.tracer.Start(ctx, "decision.evaluate",
		trace.WithAttributes(
			attribute.String("item_id", itemID.String()),
			attribute.String("seller_id", sellerID.String()),
			attribute.Int64("proposed_price", int64(proposedPrice)),
		))
	defer span.End()

	start := time.Now()
	evidence, err := s.gatherEvidence(ctx, itemID, sellerID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveEvaluation("error", time.Since(start))
		return nil, err
	}

	result := Evaluate(Input{
		ProposedPrice:  proposedPrice,
		ReferencePrice: evidence.ReferencePrice,
		Rating:         evidence.Quality.Rating,
		ReviewCount:    evidence.Quality.ReviewCount,
		ReturnRate:     evidence.Quality.ReturnRate,
		Cashback:       evidence.Deal.Cashback,
		Coupon:         evidence.Deal.Coupon,
		ShippingFee:    evidence.Deal.ShippingFee,
		TrustScore:     evidence.TrustScore,
	})

	span.SetAttributes(
		attribute.String("verdict", string(result.Verdict)),
		attribute.Int("value_score", result.ValueScore),
	)
	s.metrics.ObserveEvaluation(string(result.Verdict), time.Since(start))
	if s.logger != nil {
		s.logger.InfoContext(ctx, "purchase evaluated",
			"item_id", itemID,
			"seller_id", sellerID,
			"proposed_price", proposedPrice,
			"reference_price", result.ReferencePrice,
			"value_score", result.ValueScore,
			"verdict", result.Verdict,
		)
	}
	return &result, nil
}
