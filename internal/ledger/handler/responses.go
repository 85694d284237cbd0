package handler

import (
	"time"

	"vouch/internal/ledger"
)

type requestCreatedResponse struct {
	RequestID string `json:"request_id"`
}

type purchaseResponse struct {
	RequestID      string     `json:"request_id"`
	Confidential   bool       `json:"confidential"`
	ItemID         string     `json:"item_id,omitempty"`
	ProposedPrice  uint64     `json:"proposed_price,omitempty"`
	SellerID       string     `json:"seller_id,omitempty"`
	IntentHash     string     `json:"intent_hash,omitempty"`
	Requester      string     `json:"requester"`
	Fulfilled      bool       `json:"fulfilled"`
	Approved       bool       `json:"approved"`
	Revealed       bool       `json:"revealed,omitempty"`
	ReferencePrice uint64     `json:"reference_price,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	FulfilledAt    *time.Time `json:"fulfilled_at,omitempty"`
}

func plainPurchaseResponse(r *ledger.PurchaseRequest) purchaseResponse {
	resp := purchaseResponse{
		RequestID:      r.ID.String(),
		ItemID:         r.ItemID.String(),
		ProposedPrice:  r.ProposedPrice,
		SellerID:       r.SellerID.String(),
		Requester:      r.Requester.String(),
		Fulfilled:      r.Fulfilled,
		Approved:       r.Approved,
		ReferencePrice: r.ReferencePrice,
		CreatedAt:      r.CreatedAt,
	}
	if r.Fulfilled {
		at := r.FulfilledAt
		resp.FulfilledAt = &at
	}
	return resp
}

func confidentialPurchaseResponse(r *ledger.ConfidentialRequest) purchaseResponse {
	resp := purchaseResponse{
		RequestID:      r.ID.String(),
		Confidential:   true,
		IntentHash:     r.IntentHash.String(),
		Requester:      r.Requester.String(),
		Fulfilled:      r.Fulfilled,
		Approved:       r.Approved,
		Revealed:       r.Revealed,
		ReferencePrice: r.ReferencePrice,
		CreatedAt:      r.CreatedAt,
	}
	if r.Fulfilled {
		at := r.FulfilledAt
		resp.FulfilledAt = &at
	}
	return resp
}

type reviewResponse struct {
	RequestID string    `json:"request_id"`
	ItemID    string    `json:"item_id"`
	SellerID  string    `json:"seller_id"`
	Reviewer  string    `json:"reviewer"`
	Quality   int       `json:"quality"`
	Delivery  int       `json:"delivery"`
	Value     int       `json:"value"`
	Overall   float64   `json:"overall"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewResponse(r *ledger.AgentReview) reviewResponse {
	return reviewResponse{
		RequestID: r.RequestID.String(),
		ItemID:    r.ItemID.String(),
		SellerID:  r.SellerID.String(),
		Reviewer:  r.Reviewer.String(),
		Quality:   int(r.Quality),
		Delivery:  int(r.Delivery),
		Value:     int(r.Value),
		Overall:   r.Overall(),
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type reviewListResponse struct {
	Reviews []reviewResponse `json:"reviews"`
}

func toReviewListResponse(reviews []*ledger.AgentReview) reviewListResponse {
	out := reviewListResponse{Reviews: make([]reviewResponse, 0, len(reviews))}
	for _, review := range reviews {
		out.Reviews = append(out.Reviews, toReviewResponse(review))
	}
	return out
}

type statsResponse struct {
	SellerID    string  `json:"seller_id"`
	Count       int     `json:"count"`
	AvgQuality  float64 `json:"avg_quality"`
	AvgDelivery float64 `json:"avg_delivery"`
	AvgValue    float64 `json:"avg_value"`
	Overall     float64 `json:"overall"`
}
