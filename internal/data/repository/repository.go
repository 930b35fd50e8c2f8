package repository

import (
	"marketplace-payments/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Session SessionRepository
	Order   OrderRepository
	Product ProductRepository
	Payment PaymentRepository
	Hold    PaymentHoldRepository
	Audit   AuditRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Session: NewSessionRepository(db, log),
		Order:   NewOrderRepository(db, log),
		Product: NewProductRepository(db, log),
		Payment: NewPaymentRepository(db, log),
		Hold:    NewPaymentHoldRepository(db, log),
		Audit:   NewAuditRepository(db, log),
	}
}
