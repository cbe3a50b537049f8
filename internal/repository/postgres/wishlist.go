package postgres

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

type wishlistRepository struct {
	db DBTX
}

func NewWishlistRepository(db DBTX) repository.WishlistRepository {
	return &wishlistRepository{db: db}
}

func (r *wishlistRepository) Add(ctx context.Context, userID, productID int32) error {
	query := `INSERT INTO wishlists (user_id, product_id, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, userID, productID, time.Now().UTC())
	return mapUniqueViolation(err)
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID int32) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// List returns the user's wishlist with each product embedded, most recent first
func (r *wishlistRepository) List(ctx context.Context, userID int32) ([]domain.WishlistItem, error) {
	query := `SELECT w.created_at, ` + productFields + `
	          FROM wishlists w JOIN products p ON p.id = w.product_id
	          LEFT JOIN product_pricing pp ON pp.product_id = p.id
	          WHERE w.user_id = $1
	          GROUP BY w.created_at, p.id
	          ORDER BY w.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WishlistItem
	for rows.Next() {
		item := domain.WishlistItem{UserID: userID}
		p, err := scanProduct(rows, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		item.ProductID = p.ID
		item.Product = p
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *wishlistRepository) Exists(ctx context.Context, userID, productID int32) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND product_id = $2)`, userID, productID).Scan(&exists)
	return exists, err
}
