package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsTerminal reports whether no further transition is allowed from this status.
// A failed payment is terminal for the row; a retry creates a new row.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded
}

type PaymentProvider string

const (
	ProviderCheckoutForm PaymentProvider = "checkout_form"
	ProviderIframeToken  PaymentProvider = "iframe_token"
)

// TrailEntry is one appended record in the metadata audit trail. The trail is
// a best-effort secondary record; the authoritative log is payment_audit_log.
type TrailEntry struct {
	Action    string        `json:"action"`
	OldStatus PaymentStatus `json:"old_status,omitempty"`
	NewStatus PaymentStatus `json:"new_status,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Extra     string        `json:"extra,omitempty"`
}

// PaymentMetadata is stored as a JSONB blob on the payment row.
type PaymentMetadata struct {
	ProviderToken string       `json:"provider_token,omitempty"`
	RetryOf       *uuid.UUID   `json:"retry_of,omitempty"`
	Trail         []TrailEntry `json:"trail,omitempty"`
}

type Payment struct {
	Base
	OrderID                uuid.UUID       `db:"order_id"`
	Amount                 float64         `db:"amount"`
	Currency               string          `db:"currency"`
	Provider               PaymentProvider `db:"provider"`
	Status                 PaymentStatus   `db:"status"`
	ProviderTransactionID  *string         `db:"provider_transaction_id"`
	ProviderConversationID string          `db:"provider_conversation_id"`
	FailureReason          *string         `db:"failure_reason"`
	Metadata               PaymentMetadata `db:"metadata"`
	PaidAt                 *time.Time      `db:"paid_at"`
}
