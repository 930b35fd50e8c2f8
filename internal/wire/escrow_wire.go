package wire

import (
	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/pkg/middleware"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireEscrow(
	r chi.Router,
	escrowHandler *adaptor.EscrowHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// GET /api/seller/holds - Seller's funds currently held in escrow
		r.Get("/api/seller/holds", escrowHandler.GetSellerHolds)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/holds", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		// POST /api/admin/holds/{id}/release - Release one hold early
		r.Post("/{id}/release", escrowHandler.ReleaseHold)
	})

	r.Route("/api/admin/sweeps", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		// POST /api/admin/sweeps/expire - Run the pending payment sweep now
		r.Post("/expire", escrowHandler.RunExpirySweep)

		// POST /api/admin/sweeps/release - Run the hold release sweep now
		r.Post("/release", escrowHandler.RunReleaseSweep)
	})
}
