package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/dto/request"
	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// InitiatePayment handles POST /api/payments/initiate (protected)
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	payment, err := h.service.Initiate(r.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(w, err, "initiate payment")
		return
	}

	utils.ResponseCreated(w, "success", payment)
}

// GetPaymentStatus handles GET /api/payments/{id} (protected)
func (h *PaymentHandler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid payment ID", nil)
		return
	}

	status, err := h.service.Status(r.Context(), userID, paymentID)
	if err != nil {
		h.handleServiceError(w, err, "get payment status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// RetryPayment handles POST /api/payments/{id}/retry (protected)
func (h *PaymentHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid payment ID", nil)
		return
	}

	payment, err := h.service.Retry(r.Context(), userID, paymentID)
	if err != nil {
		h.handleServiceError(w, err, "retry payment")
		return
	}

	utils.ResponseCreated(w, "success", payment)
}

// CancelPayment handles POST /api/payments/{id}/cancel (protected)
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid payment ID", nil)
		return
	}

	if err := h.service.Cancel(r.Context(), userID, paymentID); err != nil {
		h.handleServiceError(w, err, "cancel payment")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// RefundPayment handles POST /api/payments/refund (protected, seller or admin)
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	role, _ := utils.GetRoleFromContext(r.Context())

	var req request.RefundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.service.Refund(r.Context(), userID, role == "admin", &req); err != nil {
		h.handleServiceError(w, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// ==================== ADMIN METHODS ====================

// GetPaymentDetail handles GET /api/admin/payments/{id} (admin only)
func (h *PaymentHandler) GetPaymentDetail(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid payment ID", nil)
		return
	}

	detail, err := h.service.GetDetail(r.Context(), paymentID)
	if err != nil {
		h.handleServiceError(w, err, "get payment detail")
		return
	}

	utils.ResponseSuccess(w, "success", detail)
}

// handleServiceError maps service errors for payment operations
func (h *PaymentHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	var rejected *provider.RejectedError

	switch {
	case errors.Is(err, usecase.ErrOrderNotFound),
		errors.Is(err, usecase.ErrPaymentNotFound):
		h.log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrNotOrderOwner),
		errors.Is(err, usecase.ErrNotOrderParticipant):
		h.log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrOrderNotAwaitingPayment),
		errors.Is(err, usecase.ErrActivePaymentExists),
		errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrAlreadyRefunded),
		errors.Is(err, usecase.ErrInvalidRefundAmount):
		h.log.Warn(operation+" failed - invalid state",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, repository.ErrVersionConflict):
		h.log.Warn(operation+" hit a concurrent update, caller should retry",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseJSON(w, http.StatusConflict, false, "Resource was modified concurrently, please retry", nil, nil)

	case errors.As(err, &rejected):
		h.log.Warn(operation+" rejected by provider",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, provider.ErrUnavailable), provider.IsTransient(err):
		h.log.Error(operation+" failed - provider unavailable",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "Payment provider unavailable", nil, nil)

	case strings.Contains(err.Error(), "validation failed"),
		strings.Contains(err.Error(), "invalid"):
		h.log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		h.log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
