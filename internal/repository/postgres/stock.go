package postgres

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type stockRepository struct {
	db DBTX
}

func NewStockRepository(db DBTX) repository.StockRepository {
	return &stockRepository{db: db}
}

// Reserve takes units in a single conditional update so concurrent callers can
// never drive quantity below zero.
func (r *stockRepository) Reserve(ctx context.Context, productID, quantity int32) (bool, error) {
	query := `UPDATE products SET quantity = quantity - $1, updated_at = $2 WHERE id = $3 AND quantity >= $1`
	logger.DatabaseCall("UPDATE", "products", "op", "reserve", "productID", productID, "quantity", quantity)
	result, err := r.db.ExecContext(ctx, query, quantity, time.Now().UTC(), productID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "productID", productID)
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	logger.DatabaseResult("UPDATE", rows, nil, "productID", productID)
	return rows == 1, nil
}

func (r *stockRepository) Release(ctx context.Context, productID, quantity int32) error {
	query := `UPDATE products SET quantity = quantity + $1, updated_at = $2 WHERE id = $3`
	logger.DatabaseCall("UPDATE", "products", "op", "release", "productID", productID, "quantity", quantity)
	result, err := r.db.ExecContext(ctx, query, quantity, time.Now().UTC(), productID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "productID", productID)
		return fmt.Errorf("failed to release stock: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	logger.DatabaseResult("UPDATE", rows, nil, "productID", productID)
	if rows == 0 {
		return fmt.Errorf("product %d not found", productID)
	}
	return nil
}
