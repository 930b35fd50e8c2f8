package adaptor

import (
	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Payment *PaymentHandler
	Webhook *WebhookHandler
	Escrow  *EscrowHandler
}

func NewHandler(service *usecase.Service, checkoutVerifier *provider.HMACVerifier, iframeVerifier *provider.CallbackHashVerifier, log *zap.Logger) *Handler {
	return &Handler{
		Payment: NewPaymentHandler(service.Payment, log),
		Webhook: NewWebhookHandler(service.Payment, checkoutVerifier, iframeVerifier, log),
		Escrow:  NewEscrowHandler(service.Escrow, service.Sweeper, log),
	}
}
