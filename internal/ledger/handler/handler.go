// Package handler exposes the ledger over HTTP. Authentication happens in
// middleware; every write route reads the caller identity from the request
// context and passes it to the service, which owns the authorization rules.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vouch/internal/ledger"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

// Handler handles ledger endpoints.
type Handler struct {
	ledger *ledger.Service
	logger *slog.Logger
}

// New creates a ledger Handler.
func New(service *ledger.Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: service, logger: logger}
}

// Register registers the ledger routes with the chi router. The router is
// expected to already carry the auth and request metadata middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/purchase/request", h.handleRequestPurchase)
	r.Post("/purchase/request-confidential", h.handleRequestConfidential)
	r.Post("/purchase/{requestID}/fulfill", h.handleFulfill)
	r.Post("/purchase/{requestID}/reveal", h.handleReveal)
	r.Post("/purchase/{requestID}/review", h.handleReview)
	r.Get("/purchase/{requestID}", h.handleGetPurchase)
	r.Get("/reviews/item/{itemID}", h.handleReviewsByItem)
	r.Get("/reviews/seller/{sellerID}", h.handleReviewsBySeller)
	r.Get("/reviews/seller/{sellerID}/stats", h.handleSellerStats)
	r.Post("/admin/oracle", h.handleSetOracle)
}

func (h *Handler) handleRequestPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[PurchaseRequestBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	requestID, err := h.ledger.RequestPurchase(ctx, requestcontext.AgentID(ctx), body.itemID, body.ProposedPrice, body.sellerID)
	if err != nil {
		h.writeError(w, r, "request purchase", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, requestCreatedResponse{RequestID: requestID.String()})
}

func (h *Handler) handleRequestConfidential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[ConfidentialRequestBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	requestID, err := h.ledger.RequestConfidentialPurchase(ctx, requestcontext.AgentID(ctx), body.intentHash)
	if err != nil {
		h.writeError(w, r, "request confidential purchase", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, requestCreatedResponse{RequestID: requestID.String()})
}

func (h *Handler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeAndPrepare[FulfillBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	caller := requestcontext.AgentID(ctx)
	var err error
	if body.Confidential {
		err = h.ledger.FulfillConfidentialDecision(ctx, caller, requestID, body.Approved, body.ReferencePrice)
	} else {
		err = h.ledger.FulfillDecision(ctx, caller, requestID, body.Approved, body.ReferencePrice)
	}
	if err != nil {
		h.writeError(w, r, "fulfill decision", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReveal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeAndPrepare[RevealBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	err := h.ledger.RevealPurchase(ctx, requestcontext.AgentID(ctx), requestID, body.itemID, body.ProposedPrice, body.sellerID, body.Salt)
	if err != nil {
		h.writeError(w, r, "reveal purchase", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}
	body, ok := httputil.DecodeAndPrepare[ReviewBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	err := h.ledger.SubmitReview(ctx, requestcontext.AgentID(ctx), requestID, body.quality, body.delivery, body.value, body.Comment)
	if err != nil {
		h.writeError(w, r, "submit review", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// handleGetPurchase looks the id up in the plain ledger first, then the
// confidential one; id derivation makes collisions across the two
// implausible.
func (h *Handler) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.pathRequestID(w, r)
	if !ok {
		return
	}

	if request, err := h.ledger.GetRequest(ctx, requestID); err == nil {
		httputil.WriteJSON(w, http.StatusOK, plainPurchaseResponse(request))
		return
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		h.writeError(w, r, "get purchase", err)
		return
	}

	request, err := h.ledger.GetConfidentialRequest(ctx, requestID)
	if err != nil {
		h.writeError(w, r, "get purchase", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, confidentialPurchaseResponse(request))
}

func (h *Handler) handleReviewsByItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := id.ParseItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviews, err := h.ledger.ReviewsByItem(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, "list reviews by item", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

func (h *Handler) handleReviewsBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID, err := id.ParseSellerID(chi.URLParam(r, "sellerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviews, err := h.ledger.ReviewsBySeller(r.Context(), sellerID)
	if err != nil {
		h.writeError(w, r, "list reviews by seller", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReviewListResponse(reviews))
}

func (h *Handler) handleSellerStats(w http.ResponseWriter, r *http.Request) {
	sellerID, err := id.ParseSellerID(chi.URLParam(r, "sellerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := h.ledger.SellerReviewStats(r.Context(), sellerID)
	if err != nil {
		h.writeError(w, r, "seller review stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		SellerID:    sellerID.String(),
		Count:       stats.Count,
		AvgQuality:  stats.AvgQuality,
		AvgDelivery: stats.AvgDelivery,
		AvgValue:    stats.AvgValue,
		Overall:     stats.Overall,
	})
}

func (h *Handler) handleSetOracle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, ok := httputil.DecodeAndPrepare[SetOracleBody](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	if err := h.ledger.SetOracle(ctx, requestcontext.AgentID(ctx), body.oracle); err != nil {
		h.writeError(w, r, "set oracle", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathRequestID(w http.ResponseWriter, r *http.Request) (id.RequestID, bool) {
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return requestID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal || errors.Is(err, sentinel.ErrUnavailable) {
		h.logger.ErrorContext(ctx, "ledger operation failed",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "ledger operation rejected",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"code", code,
		)
	}
	httputil.WriteError(w, err)
}
