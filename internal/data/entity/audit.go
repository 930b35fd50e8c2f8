package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one row of the append-only payment audit log, keyed by
// (payment_id, sequence). Rows are never updated or deleted.
type AuditEntry struct {
	ID        uuid.UUID  `db:"id"`
	PaymentID uuid.UUID  `db:"payment_id"`
	Sequence  int        `db:"sequence"`
	Action    string     `db:"action"`
	ActorID   *uuid.UUID `db:"actor_id"`
	OldStatus string     `db:"old_status"`
	NewStatus string     `db:"new_status"`
	Extra     *string    `db:"extra"`
	CreatedAt time.Time  `db:"created_at"`
}
