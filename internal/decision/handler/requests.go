package handler

import (
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// EvaluateRequest is the HTTP request body for POST /decision/evaluate.
type EvaluateRequest struct {
	ItemID        string `json:"item_id"`
	ProposedPrice uint64 `json:"proposed_price"`
	SellerID      string `json:"seller_id"`

	// Parsed values, populated by Validate.
	itemID   id.ItemID
	sellerID id.SellerID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	var err error
	if r.itemID, err = id.ParseItemID(r.ItemID); err != nil {
		return err
	}
	if r.sellerID, err = id.ParseSellerID(r.SellerID); err != nil {
		return err
	}
	if r.ProposedPrice == 0 {
		return dErrors.New(dErrors.CodeValidation, "proposed_price must be positive")
	}
	return nil
}
