package repository

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditRepository writes the append-only payment audit log. Entries are keyed
// by (payment_id, sequence) and are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, q database.Querier, entry *entity.AuditEntry) error
	ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.AuditEntry, error)
}

type auditRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuditRepository(db database.PgxIface, log *zap.Logger) AuditRepository {
	return &auditRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit")),
	}
}

// Append assigns the next sequence for the payment inside the caller's
// transaction. The payment row is locked by the caller, so the subselect
// cannot race with another transition on the same payment.
func (r *auditRepository) Append(ctx context.Context, q database.Querier, entry *entity.AuditEntry) error {
	query := `
		INSERT INTO payment_audit_log (id, payment_id, sequence, action, actor_id,
		                               old_status, new_status, extra, created_at)
		VALUES ($1, $2,
		        (SELECT COALESCE(MAX(sequence), 0) + 1 FROM payment_audit_log WHERE payment_id = $2),
		        $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.PaymentID,
		entry.Action,
		entry.ActorID,
		entry.OldStatus,
		entry.NewStatus,
		entry.Extra,
		entry.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to append audit entry",
			zap.Error(err),
			zap.String("payment_id", entry.PaymentID.String()),
			zap.String("action", entry.Action),
		)
		return fmt.Errorf("append audit entry for payment %s: %w", entry.PaymentID.String(), err)
	}

	return nil
}

func (r *auditRepository) ListByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, payment_id, sequence, action, actor_id, old_status, new_status, extra, created_at
		FROM payment_audit_log
		WHERE payment_id = $1
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(ctx, query, paymentID)
	if err != nil {
		r.log.Error("Failed to list audit entries",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return nil, fmt.Errorf("list audit entries for payment %s: %w", paymentID.String(), err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var entry entity.AuditEntry
		err := rows.Scan(
			&entry.ID,
			&entry.PaymentID,
			&entry.Sequence,
			&entry.Action,
			&entry.ActorID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Extra,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
