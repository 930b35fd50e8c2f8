package usecase

import (
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/events"
	"marketplace-payments/internal/provider"
	"marketplace-payments/pkg/cache"
	"marketplace-payments/pkg/database"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Payment PaymentService
	Escrow  EscrowService
	Sweeper SweeperService
}

func NewService(
	repo *repository.Repository,
	db database.PgxIface,
	tx database.TxManager,
	gateways *provider.Registry,
	emitter events.Emitter,
	statusCache cache.Cache,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	payment := NewPaymentService(repo, db, tx, gateways, emitter, statusCache, config, log)
	escrow := NewEscrowService(repo, tx, emitter, log)

	return &Service{
		Payment: payment,
		Escrow:  escrow,
		Sweeper: NewSweeperService(repo, payment, escrow, config, log),
	}
}
