// internal/wire/wire.go
package wire

import (
	"net/http"

	"marketplace-payments/internal/adaptor"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/events"
	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/usecase"
	"marketplace-payments/pkg/cache"
	"marketplace-payments/pkg/database"
	"marketplace-payments/pkg/middleware"
	"marketplace-payments/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired application
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes from the shared infrastructure.
func Wiring(
	repo *repository.Repository,
	db database.PgxIface,
	tx database.TxManager,
	gateways *provider.Registry,
	emitter events.Emitter,
	statusCache cache.Cache,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, db, tx, gateways, emitter, statusCache, config, logger)

	allowSkip := config.App.Debug
	checkoutVerifier := provider.NewHMACVerifier(config.Checkout.SecretKey, allowSkip, logger)
	iframeVerifier := provider.NewCallbackHashVerifier(
		config.Iframe.MerchantID,
		config.Iframe.MerchantKey,
		config.Iframe.MerchantSalt,
		allowSkip,
		logger,
	)

	handler := adaptor.NewHandler(service, checkoutVerifier, iframeVerifier, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter configures the Chi router
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wirePayment(r, handler.Payment, handler.Webhook, repo, config, logger)
	wireEscrow(r, handler.Escrow, repo, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
