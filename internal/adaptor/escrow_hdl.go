package adaptor

import (
	"errors"
	"net/http"

	"marketplace-payments/internal/dto/request"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EscrowHandler struct {
	escrow  usecase.EscrowService
	sweeper usecase.SweeperService
	log     *zap.Logger
}

func NewEscrowHandler(escrow usecase.EscrowService, sweeper usecase.SweeperService, log *zap.Logger) *EscrowHandler {
	return &EscrowHandler{
		escrow:  escrow,
		sweeper: sweeper,
		log:     log.With(zap.String("handler", "escrow")),
	}
}

// GetSellerHolds handles GET /api/seller/holds (protected)
func (h *EscrowHandler) GetSellerHolds(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req := request.PaginatedRequest{Page: 1, PerPage: 20}
	query := r.URL.Query()
	req.Page = utils.ParseInt(query.Get("page"), 1)
	req.PerPage = utils.ParseInt(query.Get("per_page"), 20)

	holds, err := h.escrow.ListHeldForSeller(r.Context(), userID, req.Page, req.Limit())
	if err != nil {
		h.handleServiceError(w, err, "list seller holds")
		return
	}

	utils.ResponseSuccess(w, "success", holds)
}

// ==================== ADMIN METHODS ====================

// ReleaseHold handles POST /api/admin/holds/{id}/release (admin only)
func (h *EscrowHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	holdID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid hold ID", nil)
		return
	}

	var actorID *uuid.UUID
	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		actorID = &userID
	}

	if err := h.escrow.Release(r.Context(), holdID, actorID); err != nil {
		h.handleServiceError(w, err, "release hold")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// RunExpirySweep handles POST /api/admin/sweeps/expire (admin only)
func (h *EscrowHandler) RunExpirySweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.ExpirePendingPayments(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "run expiry sweep")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// RunReleaseSweep handles POST /api/admin/sweeps/release (admin only)
func (h *EscrowHandler) RunReleaseSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.ReleaseDueHolds(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "run release sweep")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// handleServiceError maps service errors for escrow operations
func (h *EscrowHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrHoldNotFound):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
