package decision

// Verdict thresholds on the value score.
const (
	approveThreshold = 70
	cautionThreshold = 40
)

// minTrustScore is the hard floor: below it the verdict is forced to REJECT
// whatever the weighted score says.
const minTrustScore = 0.4

// Reason-selection thresholds.
const (
	lowPriceFairness = 50
	lowSellerTrust   = 0.5
	lowQualitySignal = 40
)

func verdictFor(valueScore int, trustBlocked bool) Verdict {
	if trustBlocked {
		return VerdictReject
	}
	switch {
	case valueScore >= approveThreshold:
		return VerdictApprove
	case valueScore >= cautionThreshold:
		// Caution is never auto-approved.
		return VerdictCaution
	default:
		return VerdictReject
	}
}

// reason selects exactly one reason string per decision. Non-approvals walk
// a fixed priority chain (fail-fast):
//  1. Blocked trust - the hard floor, overrides everything
//  2. Price fairness - the most actionable signal for the requester
//  3. Seller trust - soft but still seller-specific
//  4. Quality - product-specific
//  5. Generic below-threshold
func reason(verdict Verdict, breakdown Breakdown, trustScore float64, trustBlocked bool) string {
	if verdict == VerdictApprove {
		return "value score meets approval threshold"
	}
	switch {
	case trustBlocked:
		return "seller trust below minimum threshold"
	case breakdown.PriceFairness < lowPriceFairness:
		return "proposed price significantly above market reference"
	case trustScore < lowSellerTrust:
		return "seller trust too low for automatic approval"
	case breakdown.QualitySignal < lowQualitySignal:
		return "product quality signals too weak"
	default:
		return "value score below approval threshold"
	}
}
