package entity

import (
	"time"

	"github.com/google/uuid"
)

type HoldStatus string

const (
	HoldStatusHeld      HoldStatus = "held"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusCancelled HoldStatus = "cancelled"
)

// PaymentHold represents seller proceeds held in escrow for a completed
// payment. Exactly one hold exists per completed payment. ReleaseAt is fixed
// at creation; released and cancelled are both terminal.
type PaymentHold struct {
	BaseNoDelete
	PaymentID  uuid.UUID  `db:"payment_id"`
	OrderID    uuid.UUID  `db:"order_id"`
	SellerID   uuid.UUID  `db:"seller_id"`
	Amount     float64    `db:"amount"`
	Status     HoldStatus `db:"status"`
	ReleaseAt  time.Time  `db:"release_at"`
	ReleasedAt *time.Time `db:"released_at"`
}
