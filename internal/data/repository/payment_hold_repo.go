package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentHoldRepository interface {
	Create(ctx context.Context, q database.Querier, hold *entity.PaymentHold) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentHold, error)
	FindByPaymentID(ctx context.Context, q database.Querier, paymentID uuid.UUID) (*entity.PaymentHold, error)

	// Status-guarded transitions; both return ErrHoldNotHeld when the hold
	// already left the held status.
	MarkReleased(ctx context.Context, q database.Querier, id uuid.UUID, releasedAt time.Time) error
	MarkCancelled(ctx context.Context, q database.Querier, id uuid.UUID) error

	// Business queries
	FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error)
	FindHeldBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*entity.PaymentHold, error)
	CountHeldBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

type paymentHoldRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentHoldRepository(db database.PgxIface, log *zap.Logger) PaymentHoldRepository {
	return &paymentHoldRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_hold")),
	}
}

const holdColumns = `id, payment_id, order_id, seller_id, amount, status,
	       release_at, released_at, created_at, updated_at`

func scanHold(row pgx.Row) (*entity.PaymentHold, error) {
	var hold entity.PaymentHold
	err := row.Scan(
		&hold.ID,
		&hold.PaymentID,
		&hold.OrderID,
		&hold.SellerID,
		&hold.Amount,
		&hold.Status,
		&hold.ReleaseAt,
		&hold.ReleasedAt,
		&hold.CreatedAt,
		&hold.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *paymentHoldRepository) Create(ctx context.Context, q database.Querier, hold *entity.PaymentHold) error {
	query := `
		INSERT INTO payment_holds (id, payment_id, order_id, seller_id, amount,
		                           status, release_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		hold.ID,
		hold.PaymentID,
		hold.OrderID,
		hold.SellerID,
		hold.Amount,
		hold.Status,
		hold.ReleaseAt,
		hold.CreatedAt,
		hold.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment hold",
			zap.Error(err),
			zap.String("payment_id", hold.PaymentID.String()),
			zap.String("seller_id", hold.SellerID.String()),
		)
		return fmt.Errorf("create hold for payment %s: %w", hold.PaymentID.String(), err)
	}

	return nil
}

func (r *paymentHoldRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentHold, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_holds WHERE id = $1`, holdColumns)

	hold, err := scanHold(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hold by ID",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return nil, fmt.Errorf("find hold by ID %s: %w", id.String(), err)
	}

	return hold, nil
}

func (r *paymentHoldRepository) FindByPaymentID(ctx context.Context, q database.Querier, paymentID uuid.UUID) (*entity.PaymentHold, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_holds WHERE payment_id = $1`, holdColumns)

	hold, err := scanHold(q.QueryRow(ctx, query, paymentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find hold by payment ID",
			zap.Error(err),
			zap.String("payment_id", paymentID.String()),
		)
		return nil, fmt.Errorf("find hold for payment %s: %w", paymentID.String(), err)
	}

	return hold, nil
}

func (r *paymentHoldRepository) MarkReleased(ctx context.Context, q database.Querier, id uuid.UUID, releasedAt time.Time) error {
	query := `
		UPDATE payment_holds
		SET status = $2, released_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := q.Exec(ctx, query, id, entity.HoldStatusReleased, releasedAt, entity.HoldStatusHeld)
	if err != nil {
		r.log.Error("Failed to release hold",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return fmt.Errorf("release hold %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrHoldNotHeld
	}

	return nil
}

func (r *paymentHoldRepository) MarkCancelled(ctx context.Context, q database.Querier, id uuid.UUID) error {
	query := `
		UPDATE payment_holds
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := q.Exec(ctx, query, id, entity.HoldStatusCancelled, entity.HoldStatusHeld)
	if err != nil {
		r.log.Error("Failed to cancel hold",
			zap.Error(err),
			zap.String("hold_id", id.String()),
		)
		return fmt.Errorf("cancel hold %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrHoldNotHeld
	}

	return nil
}

func (r *paymentHoldRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_holds
		WHERE status = $1 AND release_at <= $2
		ORDER BY release_at ASC
		LIMIT $3
	`, holdColumns)

	rows, err := r.db.Query(ctx, query, entity.HoldStatusHeld, now, limit)
	if err != nil {
		r.log.Error("Failed to query due holds", zap.Error(err))
		return nil, fmt.Errorf("find due holds: %w", err)
	}
	defer rows.Close()

	var holds []*entity.PaymentHold
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due hold: %w", err)
		}
		holds = append(holds, hold)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due holds: %w", err)
	}

	return holds, nil
}

func (r *paymentHoldRepository) FindHeldBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*entity.PaymentHold, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_holds
		WHERE seller_id = $1 AND status = $2
		ORDER BY release_at ASC
		LIMIT $3 OFFSET $4
	`, holdColumns)

	rows, err := r.db.Query(ctx, query, sellerID, entity.HoldStatusHeld, limit, offset)
	if err != nil {
		r.log.Error("Failed to query seller holds",
			zap.Error(err),
			zap.String("seller_id", sellerID.String()),
		)
		return nil, fmt.Errorf("find held for seller %s: %w", sellerID.String(), err)
	}
	defer rows.Close()

	var holds []*entity.PaymentHold
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seller hold: %w", err)
		}
		holds = append(holds, hold)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seller holds: %w", err)
	}

	return holds, nil
}

func (r *paymentHoldRepository) CountHeldBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM payment_holds WHERE seller_id = $1 AND status = $2`

	var total int64
	err := r.db.QueryRow(ctx, query, sellerID, entity.HoldStatusHeld).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count seller holds",
			zap.Error(err),
			zap.String("seller_id", sellerID.String()),
		)
		return 0, fmt.Errorf("count held for seller %s: %w", sellerID.String(), err)
	}

	return total, nil
}
