package repository

import (
	"context"
	"fmt"

	"marketplace-payments/internal/data/entity"
	"marketplace-payments/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRepository covers the single product write this engine performs:
// flipping a listing to sold when its order is paid.
type ProductRepository interface {
	MarkSold(ctx context.Context, q database.Querier, id uuid.UUID) error
}

type productRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewProductRepository(db database.PgxIface, log *zap.Logger) ProductRepository {
	return &productRepository{
		db:  db,
		log: log.With(zap.String("repository", "product")),
	}
}

func (r *productRepository) MarkSold(ctx context.Context, q database.Querier, id uuid.UUID) error {
	query := `
		UPDATE products
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, entity.ProductStatusSold)
	if err != nil {
		r.log.Error("Failed to mark product sold",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return fmt.Errorf("mark product %s sold: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("product %s not found", id.String())
	}

	return nil
}
