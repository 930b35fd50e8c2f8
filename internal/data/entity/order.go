package entity

import (
	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// Order is the read model of the order collaborator. The engine only reads
// buyer/seller/product columns and writes status, bumping Version on every
// write for optimistic concurrency.
type Order struct {
	Base
	OrderNumber      string      `db:"order_number"`
	BuyerID          uuid.UUID   `db:"buyer_id"`
	SellerID         uuid.UUID   `db:"seller_id"`
	ProductID        uuid.UUID   `db:"product_id"`
	TotalAmount      float64     `db:"total_amount"`
	CommissionAmount float64     `db:"commission_amount"`
	Currency         string      `db:"currency"`
	Status           OrderStatus `db:"status"`
	Version          int         `db:"version"`
}

// IsParticipant reports whether the given user is the buyer or seller.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}
