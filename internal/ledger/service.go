package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"vouch/internal/ledger/metrics"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/events"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Service is the authorization ledger: the authoritative state machine for
// purchase-intent requests. It accepts plain and confidential intents,
// enforces one-writer-per-request oracle fulfillment, verifies commitment
// reveals, and records reviews tied to approved purchases.
//
// Guard checks and their writes are delegated to the stores' Execute
// methods, which run both as one indivisible step per request. Different
// requests never contend; the id counter is the only cross-request shared
// mutable state.
type Service struct {
	requests     RequestStore
	confidential ConfidentialStore
	reviews      ReviewStore
	identities   IdentityStore
	publisher    events.Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics

	counter atomic.Uint64
}

// NewService constructs the ledger service.
func NewService(
	requests RequestStore,
	confidential ConfidentialStore,
	reviews ReviewStore,
	identities IdentityStore,
	publisher events.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		requests:     requests,
		confidential: confidential,
		reviews:      reviews,
		identities:   identities,
		publisher:    publisher,
		logger:       logger,
		metrics:      m,
	}
}

// RequestPurchase records a plain purchase intent and returns its id.
// Repeat submissions with identical parameters are expected and each get a
// distinct id; there is no uniqueness constraint on the parameters.
func (s *Service) RequestPurchase(ctx context.Context, requester id.AgentID, itemID id.ItemID, proposedPrice uint64, sellerID id.SellerID) (id.RequestID, error) {
	if requester == "" {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "requester identity required")
	}
	if proposedPrice == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "proposed price must be positive")
	}

	now := requestcontext.Now(ctx)
	requestID := newRequestID(s.counter.Add(1), plainRequestPayload(itemID, proposedPrice, sellerID), requester, now.UnixNano())

	request := &PurchaseRequest{
		ID:            requestID,
		ItemID:        itemID,
		ProposedPrice: proposedPrice,
		SellerID:      sellerID,
		Requester:     requester,
		CreatedAt:     now,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "store purchase request", err)
	}

	s.metrics.IncRequestCreated("plain")
	s.emit(ctx, events.TypePurchaseRequested, now, requestID, map[string]string{
		"item_id":        itemID.String(),
		"proposed_price": strconv.FormatUint(proposedPrice, 10),
		"seller_id":      sellerID.String(),
		"requester":      requester.String(),
		"confidential":   "false",
	})
	s.logInfo(ctx, "purchase requested", "request_id", requestID, "item_id", itemID, "seller_id", sellerID)
	return requestID, nil
}

// RequestConfidentialPurchase records a commitment-only intent. The
// plaintext reaches the decision pathway out-of-band and is never persisted
// here.
func (s *Service) RequestConfidentialPurchase(ctx context.Context, requester id.AgentID, intentHash id.IntentHash) (id.RequestID, error) {
	if requester == "" {
		return "", dErrors.New(dErrors.CodeUnauthenticated, "requester identity required")
	}

	now := requestcontext.Now(ctx)
	requestID := newRequestID(s.counter.Add(1), intentHash.Bytes(), requester, now.UnixNano())

	request := &ConfidentialRequest{
		ID:         requestID,
		IntentHash: intentHash,
		Requester:  requester,
		CreatedAt:  now,
	}
	if err := s.confidential.Create(ctx, request); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "store confidential request", err)
	}

	s.metrics.IncRequestCreated("confidential")
	s.emit(ctx, events.TypePurchaseRequested, now, requestID, map[string]string{
		"intent_hash":  intentHash.String(),
		"requester":    requester.String(),
		"confidential": "true",
	})
	s.logInfo(ctx, "confidential purchase requested", "request_id", requestID)
	return requestID, nil
}

// FulfillDecision records the oracle verdict on a plain request. Only the
// configured oracle may call it, and a request transitions pending →
// fulfilled exactly once; the transition is terminal.
func (s *Service) FulfillDecision(ctx context.Context, caller id.AgentID, requestID id.RequestID, approved bool, referencePrice uint64) error {
	if err := s.requireOracle(ctx, caller); err != nil {
		s.metrics.IncRejectedWrite(string(dErrors.CodeUnauthorized))
		return err
	}

	now := requestcontext.Now(ctx)
	request, err := s.requests.Execute(ctx, requestID,
		func(r *PurchaseRequest) error { return r.ValidateForFulfill() },
		func(r *PurchaseRequest) { r.Fulfill(approved, referencePrice, now) },
	)
	if err != nil {
		return s.translateWriteError(err, "fulfill purchase request")
	}

	s.emitFulfillment(ctx, now, requestID, approved, referencePrice, rejectionReason(request.ProposedPrice, referencePrice))
	s.logInfo(ctx, "purchase request fulfilled", "request_id", requestID, "approved", approved)
	return nil
}

// FulfillConfidentialDecision records the oracle verdict on a confidential
// request. The ledger holds no plaintext price, so the rejection reason is
// not derivable here.
func (s *Service) FulfillConfidentialDecision(ctx context.Context, caller id.AgentID, requestID id.RequestID, approved bool, referencePrice uint64) error {
	if err := s.requireOracle(ctx, caller); err != nil {
		s.metrics.IncRejectedWrite(string(dErrors.CodeUnauthorized))
		return err
	}

	now := requestcontext.Now(ctx)
	_, err := s.confidential.Execute(ctx, requestID,
		func(r *ConfidentialRequest) error { return r.ValidateForFulfill() },
		func(r *ConfidentialRequest) { r.Fulfill(approved, referencePrice, now) },
	)
	if err != nil {
		return s.translateWriteError(err, "fulfill confidential request")
	}

	s.emitFulfillment(ctx, now, requestID, approved, referencePrice, "rejected by oracle")
	s.logInfo(ctx, "confidential request fulfilled", "request_id", requestID, "approved", approved)
	return nil
}

// RevealPurchase discloses the plaintext behind a confidential intent. The
// supplied fields are re-hashed and must match the stored commitment; any
// single differing field fails. Reveal is deliberately unordered relative to
// fulfillment: it may happen before or after the oracle decision, and the
// ledger enforces no dependency between the two flags.
func (s *Service) RevealPurchase(ctx context.Context, caller id.AgentID, requestID id.RequestID, itemID id.ItemID, proposedPrice uint64, sellerID id.SellerID, salt string) error {
	now := requestcontext.Now(ctx)
	_, err := s.confidential.Execute(ctx, requestID,
		func(r *ConfidentialRequest) error {
			if r.Requester != caller {
				return dErrors.New(dErrors.CodeUnauthorized, "only the original requester may reveal")
			}
			if err := r.ValidateForReveal(); err != nil {
				return err
			}
			if ComputeIntentHash(itemID, proposedPrice, sellerID, salt) != r.IntentHash {
				return dErrors.New(dErrors.CodeInvalidReveal, "revealed fields do not match commitment")
			}
			return nil
		},
		func(r *ConfidentialRequest) { r.Reveal(now) },
	)
	if err != nil {
		return s.translateWriteError(err, "reveal purchase")
	}

	s.metrics.IncReveal()
	s.emit(ctx, events.TypePurchaseRevealed, now, requestID, map[string]string{
		"item_id":        itemID.String(),
		"proposed_price": strconv.FormatUint(proposedPrice, 10),
		"seller_id":      sellerID.String(),
	})
	s.logInfo(ctx, "purchase revealed", "request_id", requestID)
	return nil
}

// SubmitReview records a post-purchase review. Eligibility is gated by
// possession of a fulfilled-and-approved request id held by the caller; this
// is the ledger's sybil-resistance mechanism.
func (s *Service) SubmitReview(ctx context.Context, caller id.AgentID, requestID id.RequestID, quality, delivery, value Rating, comment string) error {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return s.translateWriteError(err, "find purchase request")
	}

	if request.Requester != caller {
		s.metrics.IncRejectedWrite(string(dErrors.CodeUnauthorized))
		return dErrors.New(dErrors.CodeUnauthorized, "only the original requester may review")
	}
	if !request.Fulfilled || !request.Approved {
		s.metrics.IncRejectedWrite(string(dErrors.CodeNotApproved))
		return dErrors.New(dErrors.CodeNotApproved, "request is not fulfilled and approved")
	}

	now := requestcontext.Now(ctx)
	review := &AgentReview{
		RequestID: requestID,
		ItemID:    request.ItemID,
		SellerID:  request.SellerID,
		Reviewer:  caller,
		Quality:   quality,
		Delivery:  delivery,
		Value:     value,
		Comment:   comment,
		CreatedAt: now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncRejectedWrite(string(dErrors.CodeAlreadyReviewed))
			return dErrors.New(dErrors.CodeAlreadyReviewed, "request already reviewed")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "store review", err)
	}

	s.metrics.IncReview()
	s.emit(ctx, events.TypeReviewCreated, now, requestID, map[string]string{
		"item_id":   request.ItemID.String(),
		"seller_id": request.SellerID.String(),
		"reviewer":  caller.String(),
		"quality":   strconv.Itoa(int(quality)),
		"delivery":  strconv.Itoa(int(delivery)),
		"value":     strconv.Itoa(int(value)),
	})
	s.logInfo(ctx, "review submitted", "request_id", requestID, "seller_id", request.SellerID)
	return nil
}

// SetOracle swaps the oracle identity. Owner-only; the swap is atomic and
// applies to all subsequent fulfillments, never retroactively.
func (s *Service) SetOracle(ctx context.Context, caller id.AgentID, newOracle id.AgentID) error {
	owner, err := s.identities.Owner(ctx)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "load owner identity", err)
	}
	if caller != owner {
		s.metrics.IncRejectedWrite(string(dErrors.CodeUnauthorized))
		return dErrors.New(dErrors.CodeUnauthorized, "only the owner may change the oracle")
	}
	if err := s.identities.SetOracle(ctx, newOracle); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "set oracle identity", err)
	}

	now := requestcontext.Now(ctx)
	s.emit(ctx, events.TypeOracleRotated, now, "", map[string]string{
		"oracle": newOracle.String(),
	})
	s.logInfo(ctx, "oracle rotated", "oracle", newOracle)
	return nil
}

// GetRequest returns a stored plain request.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*PurchaseRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.translateWriteError(err, "find purchase request")
	}
	return request, nil
}

// GetConfidentialRequest returns a stored confidential request.
func (s *Service) GetConfidentialRequest(ctx context.Context, requestID id.RequestID) (*ConfidentialRequest, error) {
	request, err := s.confidential.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.translateWriteError(err, "find confidential request")
	}
	return request, nil
}

// GetReview returns the review linked to a request, if any.
func (s *Service) GetReview(ctx context.Context, requestID id.RequestID) (*AgentReview, error) {
	review, err := s.reviews.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, s.translateWriteError(err, "find review")
	}
	return review, nil
}

// ReviewsByItem lists reviews for an item.
func (s *Service) ReviewsByItem(ctx context.Context, itemID id.ItemID) ([]*AgentReview, error) {
	return s.reviews.ListByItem(ctx, itemID)
}

// ReviewsBySeller lists reviews for a seller.
func (s *Service) ReviewsBySeller(ctx context.Context, sellerID id.SellerID) ([]*AgentReview, error) {
	return s.reviews.ListBySeller(ctx, sellerID)
}

// SellerReviewStats aggregates a seller's reviews. The trust blender
// consumes this on every evaluation.
func (s *Service) SellerReviewStats(ctx context.Context, sellerID id.SellerID) (ReviewStats, error) {
	reviews, err := s.reviews.ListBySeller(ctx, sellerID)
	if err != nil {
		return ReviewStats{}, err
	}
	return ComputeStats(reviews), nil
}

// ItemReviewStats aggregates an item's reviews.
func (s *Service) ItemReviewStats(ctx context.Context, itemID id.ItemID) (ReviewStats, error) {
	reviews, err := s.reviews.ListByItem(ctx, itemID)
	if err != nil {
		return ReviewStats{}, err
	}
	return ComputeStats(reviews), nil
}

func (s *Service) requireOracle(ctx context.Context, caller id.AgentID) error {
	oracle, err := s.identities.Oracle(ctx)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "load oracle identity", err)
	}
	if caller != oracle {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the oracle")
	}
	return nil
}

// translateWriteError maps store sentinels to domain errors and passes
// through errors that are already domain errors (guard failures surface
// unchanged from Execute validate closures).
func (s *Service) translateWriteError(err error, op string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		s.metrics.IncRejectedWrite(string(de.Code))
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "request not found")
	}
	return dErrors.Wrap(dErrors.CodeInternal, op, err)
}

// rejectionReason derives the display reason for a rejected plain request.
// It is a convenience for consumers, not authoritative decision logic: the
// oracle's approved flag is what the ledger records.
func rejectionReason(proposedPrice, referencePrice uint64) string {
	if referencePrice > 0 && float64(proposedPrice) > 1.1*float64(referencePrice) {
		return "proposed price exceeds 110% of reference price"
	}
	return "seller trust below approval threshold"
}

// emitFulfillment publishes the approved or rejected event for a
// fulfillment; exactly one of the two fires per request.
func (s *Service) emitFulfillment(ctx context.Context, now time.Time, requestID id.RequestID, approved bool, referencePrice uint64, reason string) {
	outcome := "approved"
	eventType := events.TypePurchaseApproved
	fields := map[string]string{
		"reference_price": strconv.FormatUint(referencePrice, 10),
	}
	if !approved {
		outcome = "rejected"
		eventType = events.TypePurchaseRejected
		fields["reason"] = reason
	}
	s.metrics.IncFulfillment(outcome)
	s.emit(ctx, eventType, now, requestID, fields)
}

// emit publishes a transition event. The store write is the source of truth:
// a publish failure is logged and counted, never used to roll back state.
func (s *Service) emit(ctx context.Context, eventType events.Type, now time.Time, requestID id.RequestID, fields map[string]string) {
	if s.publisher == nil {
		return
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		fields["client_ip"] = ip
	}
	if ua := requestcontext.ClientAgent(ctx); ua != "" {
		fields["client_agent"] = ua
	}
	event := events.New(eventType, now, requestID.String(), fields)
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "event publish failed",
			"event_type", eventType,
			"request_id", requestID,
			"error", err,
		)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		args = append(args, "correlation_id", requestcontext.RequestID(ctx))
		s.logger.InfoContext(ctx, msg, args...)
	}
}
