package decision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vouch/internal/decision"
)

// Baseline market scenario: item listed around 1095, good quality record.
func marketInput(proposedPrice uint64, trustScore float64) decision.Input {
	return decision.Input{
		ProposedPrice:  proposedPrice,
		ReferencePrice: 1095,
		Rating:         4.7,
		ReviewCount:    8500,
		ReturnRate:     3,
		TrustScore:     trustScore,
	}
}

func TestEvaluate_FairPriceApproves(t *testing.T) {
	result := decision.Evaluate(marketInput(1100, 0.85))

	assert.True(t, result.Approved)
	assert.Equal(t, decision.VerdictApprove, result.Verdict)
	assert.GreaterOrEqual(t, result.ValueScore, 70)
	assert.Equal(t, uint64(1095), result.ReferencePrice)
	assert.Equal(t, uint64(1100), result.EffectivePrice)
	assert.Equal(t, "value score meets approval threshold", result.Reason)
}

func TestEvaluate_OverpricedGetsPriceReason(t *testing.T) {
	result := decision.Evaluate(marketInput(2500, 0.85))

	assert.False(t, result.Approved)
	assert.NotEqual(t, decision.VerdictApprove, result.Verdict)
	assert.Less(t, result.ValueScore, 70)
	assert.Less(t, result.Breakdown.PriceFairness, 50.0)
	assert.Equal(t, "proposed price significantly above market reference", result.Reason)
}

func TestEvaluate_TrustFloorForcesRejection(t *testing.T) {
	// Price and quality alone would clear the approval threshold.
	result := decision.Evaluate(marketInput(1000, 0.30))

	assert.False(t, result.Approved)
	assert.Equal(t, decision.VerdictReject, result.Verdict)
	assert.Equal(t, "seller trust below minimum threshold", result.Reason)

	unblocked := decision.Evaluate(marketInput(1000, 0.85))
	assert.GreaterOrEqual(t, unblocked.ValueScore, 70,
		"same inputs without the trust floor must approve, proving the floor did the rejection")
}

func TestEvaluate_CautionIsNotApproved(t *testing.T) {
	result := decision.Evaluate(marketInput(2500, 0.85))
	if result.Verdict == decision.VerdictCaution {
		assert.False(t, result.Approved)
	}
	assert.GreaterOrEqual(t, result.ValueScore, 40)
	assert.Less(t, result.ValueScore, 70)
}

func TestEvaluate_DealAdjustments(t *testing.T) {
	input := marketInput(1200, 0.85)
	input.Cashback = 80
	input.Coupon = 50
	input.ShippingFee = 30

	result := decision.Evaluate(input)
	assert.Equal(t, uint64(1100), result.EffectivePrice)
}

func TestEvaluate_SubScoresClamped(t *testing.T) {
	// Reference far above effective price pushes fairness past 100.
	input := decision.Input{
		ProposedPrice:  10,
		ReferencePrice: 5000,
		Rating:         5,
		ReviewCount:    100000,
		ReturnRate:     0,
		TrustScore:     1,
	}
	result := decision.Evaluate(input)

	for name, score := range map[string]float64{
		"price_fairness": result.Breakdown.PriceFairness,
		"quality_signal": result.Breakdown.QualitySignal,
		"seller_trust":   result.Breakdown.SellerTrust,
		"value_ratio":    result.Breakdown.ValueRatio,
	} {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 100.0, name)
	}
	assert.LessOrEqual(t, result.ValueScore, 100)
}

func TestEvaluate_ReasonPriority(t *testing.T) {
	tests := []struct {
		name  string
		input decision.Input
		want  string
	}{
		{
			"blocked trust wins over bad price",
			decision.Input{ProposedPrice: 5000, ReferencePrice: 1000, Rating: 1, TrustScore: 0.1},
			"seller trust below minimum threshold",
		},
		{
			"price fairness before soft trust",
			decision.Input{ProposedPrice: 5000, ReferencePrice: 1000, Rating: 4, ReviewCount: 5000, ReturnRate: 5, TrustScore: 0.45},
			"proposed price significantly above market reference",
		},
		{
			"soft trust before quality",
			decision.Input{ProposedPrice: 1000, ReferencePrice: 1000, Rating: 1, ReviewCount: 0, ReturnRate: 30, TrustScore: 0.45},
			"seller trust too low for automatic approval",
		},
		{
			"quality reason",
			decision.Input{ProposedPrice: 1600, ReferencePrice: 1000, Rating: 1.5, ReviewCount: 10, ReturnRate: 25, TrustScore: 0.55},
			"product quality signals too weak",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := decision.Evaluate(tt.input)
			assert.False(t, result.Approved)
			assert.Equal(t, tt.want, result.Reason)
		})
	}
}

func TestEffectivePrice_FloorsAtZero(t *testing.T) {
	assert.Zero(t, decision.EffectivePrice(100, 80, 30, 0))
	assert.Equal(t, uint64(50), decision.EffectivePrice(100, 30, 20, 0))
	assert.Equal(t, uint64(130), decision.EffectivePrice(100, 0, 0, 30))
}
