package handler

import "vouch/internal/decision"

// EvaluateResponse is the HTTP response for POST /decision/evaluate.
type EvaluateResponse struct {
	Approved       bool               `json:"approved"`
	Verdict        string             `json:"verdict"`
	ValueScore     int                `json:"value_score"`
	ReferencePrice uint64             `json:"reference_price"`
	EffectivePrice uint64             `json:"effective_price"`
	Breakdown      decision.Breakdown `json:"breakdown"`
	Reason         string             `json:"reason"`
}

// FromDecision converts a domain Decision to an HTTP response.
func FromDecision(d *decision.Decision) *EvaluateResponse {
	return &EvaluateResponse{
		Approved:       d.Approved,
		Verdict:        string(d.Verdict),
		ValueScore:     d.ValueScore,
		ReferencePrice: d.ReferencePrice,
		EffectivePrice: d.EffectivePrice,
		Breakdown:      d.Breakdown,
		Reason:         d.Reason,
	}
}
