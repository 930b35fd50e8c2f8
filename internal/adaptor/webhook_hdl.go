package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"marketplace-payments/internal/dto/request"
	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookHandler receives provider callbacks. Both rails are unauthenticated
// endpoints, so every request is integrity-checked before it can touch a
// payment, and responses stay deliberately generic so the endpoint cannot be
// used to probe payment state.
type WebhookHandler struct {
	service          usecase.PaymentService
	checkoutVerifier *provider.HMACVerifier
	iframeVerifier   *provider.CallbackHashVerifier
	log              *zap.Logger
}

func NewWebhookHandler(service usecase.PaymentService, checkoutVerifier *provider.HMACVerifier, iframeVerifier *provider.CallbackHashVerifier, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:          service,
		checkoutVerifier: checkoutVerifier,
		iframeVerifier:   iframeVerifier,
		log:              log.With(zap.String("handler", "webhook")),
	}
}

// CheckoutCallback handles POST /api/payments/callback/checkout_form (public).
// The body only names the session; the outcome is confirmed with an active
// verify call against the provider, never trusted from the callback itself.
func (h *WebhookHandler) CheckoutCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.checkoutVerifier.Verify(body, r.Header.Get("X-Checkout-Signature")); err != nil {
		h.log.Warn("Checkout callback rejected: signature verification failed",
			zap.String("remote_addr", r.RemoteAddr),
		)
		utils.ResponseForbidden(w, "Forbidden")
		return
	}

	var req request.CheckoutCallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	paymentID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid conversation ID", nil)
		return
	}

	if err := h.service.ConfirmCheckout(r.Context(), paymentID, req.Token); err != nil {
		if errors.Is(err, usecase.ErrPaymentNotFound) {
			// Unknown session: acknowledge so the provider stops retrying,
			// but keep a trace for reconciliation.
			h.log.Warn("Checkout callback for unknown payment",
				zap.String("conversation_id", req.ConversationID),
			)
			h.ack(w)
			return
		}

		// Transient verify failures leave the payment pending; a non-2xx
		// answer makes the provider redeliver.
		h.log.Error("Checkout callback processing failed",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	h.ack(w)
}

// IframeCallback handles POST /api/payments/callback/iframe_token (public).
// The iframe rail posts a form whose hash covers order reference, status and
// amount; a valid hash makes the posted outcome trustworthy.
func (h *WebhookHandler) IframeCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.ResponseBadRequest(w, "Invalid form body", nil)
		return
	}

	merchantOID := r.PostFormValue("merchant_oid")
	status := r.PostFormValue("status")
	totalAmount := r.PostFormValue("total_amount")
	hash := r.PostFormValue("hash")

	if merchantOID == "" || status == "" || hash == "" {
		utils.ResponseBadRequest(w, "Missing required fields", nil)
		return
	}

	if err := h.iframeVerifier.Verify(merchantOID, status, totalAmount, hash); err != nil {
		h.log.Warn("Iframe callback rejected: hash verification failed",
			zap.String("remote_addr", r.RemoteAddr),
		)
		utils.ResponseForbidden(w, "Forbidden")
		return
	}

	paymentID, err := uuid.Parse(merchantOID)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid order reference", nil)
		return
	}

	switch status {
	case "success":
		err = h.service.ApplySuccess(r.Context(), paymentID, r.PostFormValue("transaction_id"))
	case "failed":
		reason := r.PostFormValue("failed_reason_msg")
		if reason == "" {
			reason = "provider reported failure"
		}
		err = h.service.ApplyFailure(r.Context(), paymentID, reason)
	default:
		utils.ResponseBadRequest(w, "Unknown status", nil)
		return
	}

	if err != nil {
		if errors.Is(err, usecase.ErrPaymentNotFound) {
			h.log.Warn("Iframe callback for unknown payment",
				zap.String("merchant_oid", merchantOID),
			)
			h.ack(w)
			return
		}

		h.log.Error("Iframe callback processing failed",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	h.ack(w)
}

// ack sends the plain "OK" body both rails expect as a delivery receipt.
func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
