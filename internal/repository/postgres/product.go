package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type productRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) repository.ProductRepository {
	return &productRepository{db: db}
}

// productFields flattens product_pricing rows into one rate column per unit
const productFields = `p.id, p.name, p.description, p.category, p.quantity, p.is_rentable, p.average_rating, p.image_url, p.created_at, p.updated_at,
	COALESCE(MAX(pp.price_per_unit_cents) FILTER (WHERE pp.unit_type = 'hour'), 0) AS hourly_rate,
	COALESCE(MAX(pp.price_per_unit_cents) FILTER (WHERE pp.unit_type = 'day'), 0) AS daily_rate,
	COALESCE(MAX(pp.price_per_unit_cents) FILTER (WHERE pp.unit_type = 'week'), 0) AS weekly_rate,
	COALESCE(MAX(pp.price_per_unit_cents) FILTER (WHERE pp.unit_type = 'month'), 0) AS monthly_rate,
	COALESCE(MAX(pp.price_per_unit_cents) FILTER (WHERE pp.unit_type = 'year'), 0) AS yearly_rate`

const productSelect = `SELECT ` + productFields + ` FROM products p LEFT JOIN product_pricing pp ON pp.product_id = p.id`

// scanProduct reads productFields; lead receives any columns selected before them
func scanProduct(row rowScanner, lead ...any) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(append(lead, &p.ID, &p.Name, &p.Description, &p.Category, &p.Quantity, &p.IsRentable, &p.AverageRating, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		&p.HourlyRateCents, &p.DailyRateCents, &p.WeeklyRateCents, &p.MonthlyRateCents, &p.YearlyRateCents)...)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (name, description, category, quantity, is_rentable, average_rating, image_url, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	logger.DatabaseCall("INSERT", "products", "name", p.Name)
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Category, p.Quantity, p.IsRentable, p.AverageRating, p.ImageURL, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	logger.DatabaseResult("INSERT", 1, err, "productID", p.ID)
	return err
}

func (r *productRepository) GetByID(ctx context.Context, id int32) (*domain.Product, error) {
	query := productSelect + ` WHERE p.id = $1 GROUP BY p.id`
	return scanProduct(r.db.QueryRowContext(ctx, query, id))
}

func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int32, error) {
	limit, offset := pageOffset(filter.Page, filter.PageSize)

	var where []string
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("p.category = $%d", len(args)))
	}
	if filter.Available != nil {
		if *filter.Available {
			where = append(where, "p.quantity > 0 AND p.is_rentable")
		} else {
			where = append(where, "(p.quantity = 0 OR NOT p.is_rentable)")
		}
	}

	sql := productSelect
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " GROUP BY p.id"

	var count int32
	countSql := "SELECT count(*) FROM (" + sql + ") as sub"
	if err := r.db.QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	orderCol := "p.created_at"
	if filter.SortBy == "price" {
		orderCol = "daily_rate"
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		orderDir = "ASC"
	}
	sql += fmt.Sprintf(" ORDER BY %s %s, p.id LIMIT $%d OFFSET $%d", orderCol, orderDir, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, count, rows.Err()
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `UPDATE products SET name=$1, description=$2, category=$3, is_rentable=$4, average_rating=$5, image_url=$6, updated_at=$7 WHERE id=$8`
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Category, p.IsRentable, p.AverageRating, p.ImageURL, p.UpdatedAt, p.ID)
	return err
}

func (r *productRepository) Delete(ctx context.Context, id int32) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdjustStock applies an admin stock correction; the row is left untouched when
// the result would be negative and sql.ErrNoRows is returned.
func (r *productRepository) AdjustStock(ctx context.Context, id int32, delta int32) (int32, error) {
	query := `UPDATE products SET quantity = quantity + $1, updated_at = $2 WHERE id = $3 AND quantity + $1 >= 0 RETURNING quantity`
	var quantity int32
	logger.DatabaseCall("UPDATE", "products", "productID", id, "delta", delta)
	err := r.db.QueryRowContext(ctx, query, delta, time.Now().UTC(), id).Scan(&quantity)
	logger.DatabaseResult("UPDATE", 1, err, "productID", id)
	return quantity, err
}

func (r *productRepository) UpsertPricing(ctx context.Context, pr *domain.ProductPricing) error {
	query := `INSERT INTO product_pricing (product_id, unit_type, price_per_unit_cents, min_duration) 
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (product_id, unit_type) DO UPDATE SET price_per_unit_cents = EXCLUDED.price_per_unit_cents, min_duration = EXCLUDED.min_duration
	          RETURNING id`
	return r.db.QueryRowContext(ctx, query, pr.ProductID, pr.UnitType, pr.PricePerUnitCents, pr.MinDuration).Scan(&pr.ID)
}

func (r *productRepository) ListPricing(ctx context.Context, productID int32) ([]domain.ProductPricing, error) {
	query := `SELECT id, product_id, unit_type, price_per_unit_cents, min_duration FROM product_pricing WHERE product_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pricing []domain.ProductPricing
	for rows.Next() {
		var pr domain.ProductPricing
		if err := rows.Scan(&pr.ID, &pr.ProductID, &pr.UnitType, &pr.PricePerUnitCents, &pr.MinDuration); err != nil {
			return nil, err
		}
		pricing = append(pricing, pr)
	}
	return pricing, rows.Err()
}

func (r *productRepository) ListLowStock(ctx context.Context, threshold int32) ([]domain.Product, error) {
	query := productSelect + ` WHERE p.quantity <= $1 GROUP BY p.id ORDER BY p.quantity, p.id`
	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
