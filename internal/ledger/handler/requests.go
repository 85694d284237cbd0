package handler

import (
	"strings"

	"vouch/internal/ledger"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

const maxCommentLength = 2000

// PurchaseRequestBody is the payload for a plain purchase intent.
type PurchaseRequestBody struct {
	ItemID        string `json:"item_id"`
	ProposedPrice uint64 `json:"proposed_price"`
	SellerID      string `json:"seller_id"`

	itemID   id.ItemID
	sellerID id.SellerID
}

func (b *PurchaseRequestBody) Validate() error {
	var err error
	if b.itemID, err = id.ParseItemID(b.ItemID); err != nil {
		return err
	}
	if b.sellerID, err = id.ParseSellerID(b.SellerID); err != nil {
		return err
	}
	if b.ProposedPrice == 0 {
		return dErrors.New(dErrors.CodeValidation, "proposed_price must be positive")
	}
	return nil
}

// ConfidentialRequestBody carries only the commitment.
type ConfidentialRequestBody struct {
	IntentHash string `json:"intent_hash"`

	intentHash id.IntentHash
}

func (b *ConfidentialRequestBody) Validate() error {
	var err error
	if b.intentHash, err = id.ParseIntentHash(strings.ToLower(strings.TrimSpace(b.IntentHash))); err != nil {
		return err
	}
	return nil
}

// FulfillBody is the oracle verdict payload.
type FulfillBody struct {
	Approved       bool   `json:"approved"`
	ReferencePrice uint64 `json:"reference_price"`
	Confidential   bool   `json:"confidential,omitempty"`
}

func (b *FulfillBody) Validate() error {
	return nil
}

// RevealBody discloses the plaintext behind a commitment.
type RevealBody struct {
	ItemID        string `json:"item_id"`
	ProposedPrice uint64 `json:"proposed_price"`
	SellerID      string `json:"seller_id"`
	Salt          string `json:"salt"`

	itemID   id.ItemID
	sellerID id.SellerID
}

func (b *RevealBody) Validate() error {
	var err error
	if b.itemID, err = id.ParseItemID(b.ItemID); err != nil {
		return err
	}
	if b.sellerID, err = id.ParseSellerID(b.SellerID); err != nil {
		return err
	}
	return nil
}

// ReviewBody is the post-purchase review payload.
type ReviewBody struct {
	Quality  int    `json:"quality"`
	Delivery int    `json:"delivery"`
	Value    int    `json:"value"`
	Comment  string `json:"comment,omitempty"`

	quality  ledger.Rating
	delivery ledger.Rating
	value    ledger.Rating
}

func (b *ReviewBody) Validate() error {
	var err error
	if b.quality, err = ledger.ParseRating(b.Quality); err != nil {
		return err
	}
	if b.delivery, err = ledger.ParseRating(b.Delivery); err != nil {
		return err
	}
	if b.value, err = ledger.ParseRating(b.Value); err != nil {
		return err
	}
	if len(b.Comment) > maxCommentLength {
		return dErrors.New(dErrors.CodeValidation, "comment too long")
	}
	return nil
}

// SetOracleBody rotates the oracle identity.
type SetOracleBody struct {
	Oracle string `json:"oracle"`

	oracle id.AgentID
}

func (b *SetOracleBody) Validate() error {
	var err error
	if b.oracle, err = id.ParseAgentID(b.Oracle); err != nil {
		return err
	}
	return nil
}
