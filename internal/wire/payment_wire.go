package wire

import (
	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/pkg/middleware"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	webhookHandler *adaptor.WebhookHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/payments/initiate - Open a payment session for an order
		r.Post("/api/payments/initiate", paymentHandler.InitiatePayment)

		// GET /api/payments/{id} - Payment status for buyer or seller
		r.Get("/api/payments/{id}", paymentHandler.GetPaymentStatus)

		// POST /api/payments/{id}/retry - New attempt after a failed payment
		r.Post("/api/payments/{id}/retry", paymentHandler.RetryPayment)

		// POST /api/payments/{id}/cancel - Abort a pending payment
		r.Post("/api/payments/{id}/cancel", paymentHandler.CancelPayment)

		// POST /api/payments/refund - Refund a completed payment (seller or admin)
		r.Post("/api/payments/refund", paymentHandler.RefundPayment)
	})

	// ==================== PUBLIC ROUTES (provider callbacks) ====================
	// Authenticated by signature/hash, not by session.
	r.Post("/api/payments/callback/checkout_form", webhookHandler.CheckoutCallback)
	r.Post("/api/payments/callback/iframe_token", webhookHandler.IframeCallback)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payments", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		// GET /api/admin/payments/{id} - Full payment detail with audit trail
		r.Get("/{id}", paymentHandler.GetPaymentDetail)
	})
}
