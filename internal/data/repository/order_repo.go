package repository

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OrderRepository is the engine's narrow view of the order collaborator: a
// transactional read plus a conditional status update. Order creation and the
// rest of its lifecycle belong to the storefront.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.Order, error)
	UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status entity.OrderStatus, expectedVersion int) error
}

type orderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOrderRepository(db database.PgxIface, log *zap.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log.With(zap.String("repository", "order")),
	}
}

const orderColumns = `id, order_number, buyer_id, seller_id, product_id,
	       total_amount, commission_amount, currency, status, version,
	       created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var order entity.Order
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.BuyerID,
		&order.SellerID,
		&order.ProductID,
		&order.TotalAmount,
		&order.CommissionAmount,
		&order.Currency,
		&order.Status,
		&order.Version,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 AND deleted_at IS NULL`, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find order by ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("find order by ID %s: %w", id.String(), err)
	}

	return order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, q database.Querier, id uuid.UUID) (*entity.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, orderColumns)

	order, err := scanOrder(q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock order row",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("lock order %s: %w", id.String(), err)
	}

	return order, nil
}

// UpdateStatus performs an optimistic-concurrency write: the update only
// applies when the version still matches, and every write bumps the version.
func (r *orderRepository) UpdateStatus(ctx context.Context, q database.Querier, id uuid.UUID, status entity.OrderStatus, expectedVersion int) error {
	query := `
		UPDATE orders
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`

	result, err := q.Exec(ctx, query, id, status, expectedVersion)
	if err != nil {
		r.log.Error("Failed to update order status",
			zap.Error(err),
			zap.String("order_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update order %s status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	return nil
}
