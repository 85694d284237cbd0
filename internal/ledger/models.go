package ledger

import (
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// PurchaseRequest is a plain purchase intent. It is created on submission,
// mutated exactly once by oracle fulfillment, and immutable afterward except
// for the linked review.
type PurchaseRequest struct {
	ID             id.RequestID
	ItemID         id.ItemID
	ProposedPrice  uint64
	SellerID       id.SellerID
	Requester      id.AgentID
	Fulfilled      bool
	Approved       bool
	ReferencePrice uint64
	CreatedAt      time.Time
	FulfilledAt    time.Time
}

// ValidateForFulfill guards the pending → fulfilled transition.
// The transition is terminal: once fulfilled, every later attempt fails.
func (r *PurchaseRequest) ValidateForFulfill() error {
	if r.Fulfilled {
		return dErrors.New(dErrors.CodeAlreadyFulfilled, "request already fulfilled")
	}
	return nil
}

// Fulfill records the oracle decision. Callers must have run
// ValidateForFulfill under the same critical section.
func (r *PurchaseRequest) Fulfill(approved bool, referencePrice uint64, at time.Time) {
	r.Fulfilled = true
	r.Approved = approved
	r.ReferencePrice = referencePrice
	r.FulfilledAt = at
}

// ConfidentialRequest is a purchase intent hidden behind a commitment. No
// plaintext purchase fields are ever stored; the reveal emits them as an
// event without persisting them.
type ConfidentialRequest struct {
	ID             id.RequestID
	IntentHash     id.IntentHash
	Requester      id.AgentID
	Fulfilled      bool
	Approved       bool
	Revealed       bool
	ReferencePrice uint64
	CreatedAt      time.Time
	FulfilledAt    time.Time
	RevealedAt     time.Time
}

// ValidateForFulfill guards the pending → fulfilled transition.
func (r *ConfidentialRequest) ValidateForFulfill() error {
	if r.Fulfilled {
		return dErrors.New(dErrors.CodeAlreadyFulfilled, "request already fulfilled")
	}
	return nil
}

// Fulfill records the oracle decision.
func (r *ConfidentialRequest) Fulfill(approved bool, referencePrice uint64, at time.Time) {
	r.Fulfilled = true
	r.Approved = approved
	r.ReferencePrice = referencePrice
	r.FulfilledAt = at
}

// ValidateForReveal guards the reveal transition. Reveal is independent of
// fulfillment: it may happen before or after the oracle decision.
func (r *ConfidentialRequest) ValidateForReveal() error {
	if r.Revealed {
		return dErrors.New(dErrors.CodeAlreadyRevealed, "request already revealed")
	}
	return nil
}

// Reveal marks the commitment as disclosed.
func (r *ConfidentialRequest) Reveal(at time.Time) {
	r.Revealed = true
	r.RevealedAt = at
}

// Rating is a review dimension score.
// Invariant: in [1,5]. Construct via ParseRating at trust boundaries.
type Rating uint8

// ParseRating validates the [1,5] range.
func ParseRating(v int) (Rating, error) {
	if v < 1 || v > 5 {
		return 0, dErrors.New(dErrors.CodeInvalidRating, "rating must be between 1 and 5")
	}
	return Rating(v), nil
}

// AgentReview is a verified post-purchase review. At most one exists per
// request, and only for requests that were fulfilled and approved — review
// eligibility is gated by possession of an approved-purchase identifier, not
// by open registration.
type AgentReview struct {
	RequestID id.RequestID
	ItemID    id.ItemID
	SellerID  id.SellerID
	Reviewer  id.AgentID
	Quality   Rating
	Delivery  Rating
	Value     Rating
	Comment   string
	CreatedAt time.Time
}

// Overall averages the three rating dimensions.
func (r *AgentReview) Overall() float64 {
	return (float64(r.Quality) + float64(r.Delivery) + float64(r.Value)) / 3
}

// ReviewStats aggregates reviews for a seller or item.
type ReviewStats struct {
	Count       int
	AvgQuality  float64
	AvgDelivery float64
	AvgValue    float64
	Overall     float64
}

// ComputeStats aggregates a review list. An empty list yields zeroes.
func ComputeStats(reviews []*AgentReview) ReviewStats {
	if len(reviews) == 0 {
		return ReviewStats{}
	}
	var q, d, v float64
	for _, review := range reviews {
		q += float64(review.Quality)
		d += float64(review.Delivery)
		v += float64(review.Value)
	}
	n := float64(len(reviews))
	stats := ReviewStats{
		Count:       len(reviews),
		AvgQuality:  q / n,
		AvgDelivery: d / n,
		AvgValue:    v / n,
	}
	stats.Overall = (stats.AvgQuality + stats.AvgDelivery + stats.AvgValue) / 3
	return stats
}
