package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/internal/decision"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
	"vouch/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Evaluate(ctx context.Context, itemID id.ItemID, proposedPrice uint64, sellerID id.SellerID) (*decision.Decision, error)
}

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decision/evaluate", h.HandleEvaluate)
}

// HandleEvaluate handles POST /decision/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Evaluate(ctx, req.itemID, req.ProposedPrice, req.sellerID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNoSources) {
			h.logger.WarnContext(ctx, "no price sources for evaluation",
				"request_id", requestID,
				"item_id", req.ItemID,
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "decision evaluation failed",
			"request_id", requestID,
			"item_id", req.ItemID,
			"seller_id", req.SellerID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "evaluation failed"))
		return
	}

	h.logger.InfoContext(ctx, "decision evaluated",
		"request_id", requestID,
		"item_id", req.ItemID,
		"verdict", result.Verdict,
		"value_score", result.ValueScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDecision(result))
}
