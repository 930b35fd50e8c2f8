package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, q database.Querier, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error)

	// Transactional operations. The caller owns the transaction boundary;
	// FindByIDForUpdate locks the row so concurrent transitions serialize.
	FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.Payment, error)
	MarkCompleted(ctx context.Context, q database.Querier, id uuid.UUID, providerTxID string, paidAt time.Time) error
	MarkFailed(ctx context.Context, q database.Querier, id uuid.UUID, reason string) error
	MarkRefunded(ctx context.Context, q database.Querier, id uuid.UUID) error
	UpdateMetadata(ctx context.Context, q database.Querier, id uuid.UUID, metadata entity.PaymentMetadata) error

	// Sweep query
	FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, order_id, amount, currency, provider, status,
	       provider_transaction_id, provider_conversation_id, failure_reason,
	       metadata, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	var metadata []byte

	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Currency,
		&payment.Provider,
		&payment.Status,
		&payment.ProviderTransactionID,
		&payment.ProviderConversationID,
		&payment.FailureReason,
		&metadata,
		&payment.PaidAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &payment.Metadata); err != nil {
			return nil, fmt.Errorf("decode payment metadata: %w", err)
		}
	}

	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, q database.Querier, payment *entity.Payment) error {
	metadata, err := json.Marshal(payment.Metadata)
	if err != nil {
		return fmt.Errorf("encode payment metadata: %w", err)
	}

	query := `
		INSERT INTO payments (id, order_id, amount, currency, provider, status,
		                      provider_transaction_id, provider_conversation_id,
		                      failure_reason, metadata, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = q.Exec(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Currency,
		payment.Provider,
		payment.Status,
		payment.ProviderTransactionID,
		payment.ProviderConversationID,
		payment.FailureReason,
		metadata,
		payment.PaidAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("order_id", payment.OrderID.String()),
			zap.String("provider", string(payment.Provider)),
		)
		return fmt.Errorf("create payment for order %s: %w", payment.OrderID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

// FindByIDForUpdate re-reads the row inside the caller's transaction with a
// row lock. Every transition re-checks the status it reads here before
// mutating, which is what makes duplicate webhook deliveries safe.
func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1 FOR UPDATE`, paymentColumns)

	payment, err := scanPayment(q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock payment row",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("lock payment %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE order_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRow(ctx, query, orderID, entity.PaymentStatusPending))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active payment",
			zap.Error(err),
			zap.String("order_id", orderID.String()),
		)
		return nil, fmt.Errorf("find active payment for order %s: %w", orderID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindLatestByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRow(ctx, query, orderID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find latest payment",
			zap.Error(err),
			zap.String("order_id", orderID.String()),
		)
		return nil, fmt.Errorf("find latest payment for order %s: %w", orderID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) MarkCompleted(ctx context.Context, q database.Querier, id uuid.UUID, providerTxID string, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, provider_transaction_id = $3, paid_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, entity.PaymentStatusCompleted, providerTxID, paidAt)
	if err != nil {
		r.log.Error("Failed to mark payment completed",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return fmt.Errorf("mark payment %s completed: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", id.String())
	}

	return nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, q database.Querier, id uuid.UUID, reason string) error {
	query := `
		UPDATE payments
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, entity.PaymentStatusFailed, reason)
	if err != nil {
		r.log.Error("Failed to mark payment failed",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return fmt.Errorf("mark payment %s failed: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", id.String())
	}

	return nil
}

func (r *paymentRepository) MarkRefunded(ctx context.Context, q database.Querier, id uuid.UUID) error {
	query := `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, entity.PaymentStatusRefunded)
	if err != nil {
		r.log.Error("Failed to mark payment refunded",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return fmt.Errorf("mark payment %s refunded: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", id.String())
	}

	return nil
}

func (r *paymentRepository) UpdateMetadata(ctx context.Context, q database.Querier, id uuid.UUID, metadata entity.PaymentMetadata) error {
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode payment metadata: %w", err)
	}

	query := `
		UPDATE payments
		SET metadata = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, encoded)
	if err != nil {
		r.log.Error("Failed to update payment metadata",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return fmt.Errorf("update payment %s metadata: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", id.String())
	}

	return nil
}

func (r *paymentRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`, paymentColumns)

	rows, err := r.db.Query(ctx, query, entity.PaymentStatusPending, cutoff, limit)
	if err != nil {
		r.log.Error("Failed to query stale pending payments", zap.Error(err))
		return nil, fmt.Errorf("find stale pending payments: %w", err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale pending payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale pending payments: %w", err)
	}

	return payments, nil
}
