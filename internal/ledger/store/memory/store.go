// Package memory provides the in-memory ledger stores. They are the default
// backing for development and tests and define the reference semantics the
// Postgres implementation must match: guarded mutations run under the store
// lock so a guard check and its write are one indivisible step per request.
package memory

import (
	"context"
	"fmt"
	"sync"

	"vouch/internal/ledger"
	id "vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// RequestStore stores plain purchase requests.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*ledger.PurchaseRequest
}

// NewRequestStore constructs an empty request store.
func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[id.RequestID]*ledger.PurchaseRequest)}
}

func (s *RequestStore) Create(_ context.Context, request *ledger.PurchaseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

func (s *RequestStore) FindByID(_ context.Context, requestID id.RequestID) (*ledger.PurchaseRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if request, ok := s.requests[requestID]; ok {
		copied := *request
		return &copied, nil
	}
	return nil, fmt.Errorf("purchase request %s: %w", requestID, sentinel.ErrNotFound)
}

// Execute runs validate then apply under the store lock. Concurrent
// transitions on the same request serialize here: exactly one caller's
// validate sees the pre-transition state.
func (s *RequestStore) Execute(_ context.Context, requestID id.RequestID,
	validate func(*ledger.PurchaseRequest) error,
	apply func(*ledger.PurchaseRequest)) (*ledger.PurchaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("purchase request %s: %w", requestID, sentinel.ErrNotFound)
	}
	if err := validate(request); err != nil {
		return nil, err
	}
	apply(request)
	copied := *request
	return &copied, nil
}

// ConfidentialStore stores commitment-only requests.
type ConfidentialStore struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*ledger.ConfidentialRequest
}

// NewConfidentialStore constructs an empty confidential request store.
func NewConfidentialStore() *ConfidentialStore {
	return &ConfidentialStore{requests: make(map[id.RequestID]*ledger.ConfidentialRequest)}
}

func (s *ConfidentialStore) Create(_ context.Context, request *ledger.ConfidentialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

func (s *ConfidentialStore) FindByID(_ context.Context, requestID id.RequestID) (*ledger.ConfidentialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if request, ok := s.requests[requestID]; ok {
		copied := *request
		return &copied, nil
	}
	return nil, fmt.Errorf("confidential request %s: %w", requestID, sentinel.ErrNotFound)
}

func (s *ConfidentialStore) Execute(_ context.Context, requestID id.RequestID,
	validate func(*ledger.ConfidentialRequest) error,
	apply func(*ledger.ConfidentialRequest)) (*ledger.ConfidentialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("confidential request %s: %w", requestID, sentinel.ErrNotFound)
	}
	if err := validate(request); err != nil {
		return nil, err
	}
	apply(request)
	copied := *request
	return &copied, nil
}

// ReviewStore stores reviews with item and seller indexes.
type ReviewStore struct {
	mu       sync.RWMutex
	byID     map[id.RequestID]*ledger.AgentReview
	byItem   map[id.ItemID][]id.RequestID
	bySeller map[id.SellerID][]id.RequestID
}

// NewReviewStore constructs an empty review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		byID:     make(map[id.RequestID]*ledger.AgentReview),
		byItem:   make(map[id.ItemID][]id.RequestID),
		bySeller: make(map[id.SellerID][]id.RequestID),
	}
}

// Create persists the review and both indexes in one critical section.
// A second review for the same request fails with ErrConflict.
func (s *ReviewStore) Create(_ context.Context, review *ledger.AgentReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[review.RequestID]; exists {
		return fmt.Errorf("review for request %s: %w", review.RequestID, sentinel.ErrConflict)
	}
	stored := *review
	s.byID[review.RequestID] = &stored
	s.byItem[review.ItemID] = append(s.byItem[review.ItemID], review.RequestID)
	s.bySeller[review.SellerID] = append(s.bySeller[review.SellerID], review.RequestID)
	return nil
}

func (s *ReviewStore) FindByRequest(_ context.Context, requestID id.RequestID) (*ledger.AgentReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if review, ok := s.byID[requestID]; ok {
		copied := *review
		return &copied, nil
	}
	return nil, fmt.Errorf("review for request %s: %w", requestID, sentinel.ErrNotFound)
}

func (s *ReviewStore) ListByItem(_ context.Context, itemID id.ItemID) ([]*ledger.AgentReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byItem[itemID]), nil
}

func (s *ReviewStore) ListBySeller(_ context.Context, sellerID id.SellerID) ([]*ledger.AgentReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.bySeller[sellerID]), nil
}

func (s *ReviewStore) collect(ids []id.RequestID) []*ledger.AgentReview {
	reviews := make([]*ledger.AgentReview, 0, len(ids))
	for _, requestID := range ids {
		if review, ok := s.byID[requestID]; ok {
			copied := *review
			reviews = append(reviews, &copied)
		}
	}
	return reviews
}

// IdentityStore holds the oracle and owner identities.
type IdentityStore struct {
	mu     sync.RWMutex
	oracle id.AgentID
	owner  id.AgentID
}

// NewIdentityStore seeds the identities from configuration.
func NewIdentityStore(oracle, owner id.AgentID) *IdentityStore {
	return &IdentityStore{oracle: oracle, owner: owner}
}

func (s *IdentityStore) Oracle(_ context.Context) (id.AgentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.oracle, nil
}

func (s *IdentityStore) Owner(_ context.Context) (id.AgentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, nil
}

func (s *IdentityStore) SetOracle(_ context.Context, oracle id.AgentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oracle = oracle
	return nil
}
