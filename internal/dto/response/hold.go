package response

import (
	"time"

	"marketplace-payments/internal/data/entity"
)

type HoldResponse struct {
	ID         string     `json:"id"`
	PaymentID  string     `json:"payment_id"`
	OrderID    string     `json:"order_id"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"`
	ReleaseAt  time.Time  `json:"release_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func HoldToResponse(hold *entity.PaymentHold) HoldResponse {
	return HoldResponse{
		ID:         hold.ID.String(),
		PaymentID:  hold.PaymentID.String(),
		OrderID:    hold.OrderID.String(),
		Amount:     hold.Amount,
		Status:     string(hold.Status),
		ReleaseAt:  hold.ReleaseAt,
		ReleasedAt: hold.ReleasedAt,
		CreatedAt:  hold.CreatedAt,
	}
}

// SweepResponse reports a manual sweep run.
type SweepResponse struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
