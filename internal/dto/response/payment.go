package response

import (
	"time"

	"marketplace-payments/internal/data/entity"
)

type InitiatePaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	Provider         string `json:"provider"`
	RedirectURL      string `json:"redirect_url,omitempty"`
	EmbedHTML        string `json:"embed_html,omitempty"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// PaymentStatusResponse is the lightweight projection served to buyers and
// sellers. Internal provider payloads are never included.
type PaymentStatusResponse struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	Provider      string  `json:"provider"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

func PaymentToStatusResponse(payment *entity.Payment) PaymentStatusResponse {
	return PaymentStatusResponse{
		ID:            payment.ID.String(),
		Status:        string(payment.Status),
		Provider:      string(payment.Provider),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		FailureReason: payment.FailureReason,
	}
}

type AuditEntryResponse struct {
	Sequence  int       `json:"sequence"`
	Action    string    `json:"action"`
	ActorID   *string   `json:"actor_id,omitempty"`
	OldStatus string    `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status,omitempty"`
	Extra     *string   `json:"extra,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentDetailResponse is the admin view: the full row plus the audit log.
type PaymentDetailResponse struct {
	PaymentStatusResponse
	OrderID               string               `json:"order_id"`
	ProviderTransactionID *string              `json:"provider_transaction_id,omitempty"`
	PaidAt                *time.Time           `json:"paid_at,omitempty"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
	Trail                 []entity.TrailEntry  `json:"trail,omitempty"`
	Audit                 []AuditEntryResponse `json:"audit,omitempty"`
}

func PaymentToDetailResponse(payment *entity.Payment, audit []*entity.AuditEntry) *PaymentDetailResponse {
	auditResponses := make([]AuditEntryResponse, len(audit))
	for i, entry := range audit {
		var actorID *string
		if entry.ActorID != nil {
			s := entry.ActorID.String()
			actorID = &s
		}
		auditResponses[i] = AuditEntryResponse{
			Sequence:  entry.Sequence,
			Action:    entry.Action,
			ActorID:   actorID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Extra:     entry.Extra,
			CreatedAt: entry.CreatedAt,
		}
	}

	return &PaymentDetailResponse{
		PaymentStatusResponse: PaymentToStatusResponse(payment),
		OrderID:               payment.OrderID.String(),
		ProviderTransactionID: payment.ProviderTransactionID,
		PaidAt:                payment.PaidAt,
		CreatedAt:             payment.CreatedAt,
		UpdatedAt:             payment.UpdatedAt,
		Trail:                 payment.Metadata.Trail,
		Audit:                 auditResponses,
	}
}
