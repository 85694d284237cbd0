package ledger

import (
	"context"

	id "vouch/pkg/domain"
)

// Stores are interface-driven so the ledger service stays testable and the
// in-memory and Postgres implementations are interchangeable.
//
// Error Contract:
// - Return sentinel.ErrNotFound (wrapped) when the entity does not exist.
// - Execute runs validate and apply as one indivisible step per request:
//   checking the guard and writing must not interleave with another caller's
//   transition on the same request. Validate errors pass through unchanged.
// - Return wrapped errors with context for infrastructure failures.

// RequestStore persists plain purchase requests.
type RequestStore interface {
	Create(ctx context.Context, request *PurchaseRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*PurchaseRequest, error)

	// Execute atomically validates and mutates the request with the given id.
	// The returned request reflects the post-apply state.
	Execute(ctx context.Context, requestID id.RequestID,
		validate func(*PurchaseRequest) error,
		apply func(*PurchaseRequest)) (*PurchaseRequest, error)
}

// ConfidentialStore persists commitment-only requests.
type ConfidentialStore interface {
	Create(ctx context.Context, request *ConfidentialRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*ConfidentialRequest, error)
	Execute(ctx context.Context, requestID id.RequestID,
		validate func(*ConfidentialRequest) error,
		apply func(*ConfidentialRequest)) (*ConfidentialRequest, error)
}

// ReviewStore persists reviews with item and seller indexes.
type ReviewStore interface {
	// Create fails with sentinel.ErrConflict if a review already exists for
	// the request. The existence check and the write are one atomic step.
	Create(ctx context.Context, review *AgentReview) error
	FindByRequest(ctx context.Context, requestID id.RequestID) (*AgentReview, error)
	ListByItem(ctx context.Context, itemID id.ItemID) ([]*AgentReview, error)
	ListBySeller(ctx context.Context, sellerID id.SellerID) ([]*AgentReview, error)
}

// IdentityStore holds the process-wide oracle and owner identities. The
// oracle is mutable through the owner-only SetOracle operation; the swap is
// atomic and takes effect for all subsequent fulfillments, never
// retroactively.
type IdentityStore interface {
	Oracle(ctx context.Context) (id.AgentID, error)
	Owner(ctx context.Context) (id.AgentID, error)
	SetOracle(ctx context.Context, oracle id.AgentID) error
}
