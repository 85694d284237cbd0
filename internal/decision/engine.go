// Package decision turns market evidence and seller trust into a purchase
// verdict. The scoring itself is pure domain logic: no I/O, no side effects,
// all inputs passed as arguments.
package decision

import "math"

// Verdict classifies an evaluation.
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictCaution Verdict = "CAUTION"
	VerdictReject  Verdict = "REJECT"
)

// Score weights. Price fairness dominates; the trust floor in rules.go
// exists because trust alone cannot veto through a 25% weight.
const (
	weightPriceFairness = 0.35
	weightQualitySignal = 0.25
	weightSellerTrust   = 0.25
	weightValueRatio    = 0.15
)

// Input carries everything one evaluation needs.
type Input struct {
	ProposedPrice  uint64
	ReferencePrice uint64 // median of observed samples, > 0

	// Product quality record; zero values degrade the score.
	Rating      float64 // 0-5
	ReviewCount int
	ReturnRate  float64 // percentage

	// Deal adjustments, all non-negative.
	Cashback    uint64
	Coupon      uint64
	ShippingFee uint64

	// Seller trust in [0,1].
	TrustScore float64
}

// Breakdown exposes the four sub-scores, each in [0,100].
type Breakdown struct {
	PriceFairness float64 `json:"price_fairness"`
	QualitySignal float64 `json:"quality_signal"`
	SellerTrust   float64 `json:"seller_trust"`
	ValueRatio    float64 `json:"value_ratio"`
}

// Decision is the evaluation result. Transient: the ledger never persists it.
type Decision struct {
	Approved       bool      `json:"approved"`
	Verdict        Verdict   `json:"verdict"`
	ValueScore     int       `json:"value_score"`
	ReferencePrice uint64    `json:"reference_price"`
	EffectivePrice uint64    `json:"effective_price"`
	Breakdown      Breakdown `json:"breakdown"`
	Reason         string    `json:"reason"`
}

// EffectivePrice applies deal adjustments to the sticker price, floored at
// zero.
func EffectivePrice(proposed, cashback, coupon, shipping uint64) uint64 {
	price := proposed + shipping
	discount := cashback + coupon
	if discount >= price {
		return 0
	}
	return price - discount
}

// Evaluate scores a purchase. ReferencePrice must be positive; the caller
// guarantees that by failing the evaluation when no price source answered.
func Evaluate(input Input) Decision {
	effective := EffectivePrice(input.ProposedPrice, input.Cashback, input.Coupon, input.ShippingFee)
	effectiveDivisor := math.Max(float64(effective), 1)
	reference := float64(input.ReferencePrice)

	breakdown := Breakdown{
		PriceFairness: clamp100(reference / effectiveDivisor * 100),
		QualitySignal: clamp100(qualitySignal(input.Rating, input.ReviewCount, input.ReturnRate)),
		SellerTrust:   clamp100(input.TrustScore * 100),
		ValueRatio:    clamp100(input.Rating * 20 / (effectiveDivisor / reference)),
	}

	weighted := breakdown.PriceFairness*weightPriceFairness +
		breakdown.QualitySignal*weightQualitySignal +
		breakdown.SellerTrust*weightSellerTrust +
		breakdown.ValueRatio*weightValueRatio
	valueScore := int(clamp100(math.Round(weighted)))

	trustBlocked := input.TrustScore < minTrustScore
	verdict := verdictFor(valueScore, trustBlocked)

	return Decision{
		Approved:       verdict == VerdictApprove,
		Verdict:        verdict,
		ValueScore:     valueScore,
		ReferencePrice: input.ReferencePrice,
		EffectivePrice: effective,
		Breakdown:      breakdown,
		Reason:         reason(verdict, breakdown, input.TrustScore, trustBlocked),
	}
}

func qualitySignal(rating float64, reviewCount int, returnRate float64) float64 {
	volume := math.Min(float64(reviewCount)/10000, 1)
	returns := math.Max(0, (20-returnRate)/20)
	return rating/5*50 + volume*30 + returns*20
}

func clamp100(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
