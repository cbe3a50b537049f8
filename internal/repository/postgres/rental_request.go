package postgres

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type rentalRequestRepository struct {
	db DBTX
}

func NewRentalRequestRepository(db DBTX) repository.RentalRequestRepository {
	return &rentalRequestRepository{db: db}
}

const rentalRequestColumns = `id, customer_id, product_id, product_name, product_daily_rate_cents, quantity, start_date, end_date, duration_type, duration_value,
	total_amount_cents, status, payment_status, payment_amount_cents, payment_due_date, delivery_address, admin_notes, approved_by, approved_at, rejected_at, created_at, updated_at`

func scanRentalRequest(row rowScanner) (*domain.RentalRequest, error) {
	rr := &domain.RentalRequest{}
	err := row.Scan(&rr.ID, &rr.CustomerID, &rr.ProductID, &rr.ProductName, &rr.ProductDailyRateCents, &rr.Quantity,
		&rr.RentalPeriod.StartDate, &rr.RentalPeriod.EndDate, &rr.RentalPeriod.DurationType, &rr.RentalPeriod.DurationValue,
		&rr.TotalAmountCents, &rr.Status, &rr.PaymentStatus, &rr.PaymentAmountCents, &rr.PaymentDueDate, &rr.DeliveryAddress, &rr.AdminNotes,
		&rr.ApprovedBy, &rr.ApprovedAt, &rr.RejectedAt, &rr.CreatedAt, &rr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rr, nil
}

func (r *rentalRequestRepository) Create(ctx context.Context, rr *domain.RentalRequest) error {
	logger.EnterMethod("rentalRequestRepository.Create", "customerID", rr.CustomerID, "productID", rr.ProductID)

	query := `INSERT INTO rental_requests (customer_id, product_id, product_name, product_daily_rate_cents, quantity, start_date, end_date, duration_type, duration_value,
	          total_amount_cents, status, payment_status, payment_amount_cents, payment_due_date, delivery_address, admin_notes, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id`
	now := time.Now().UTC()
	rr.CreatedAt = now
	rr.UpdatedAt = now

	logger.DatabaseCall("INSERT", "rental_requests", "customerID", rr.CustomerID)
	err := r.db.QueryRowContext(ctx, query, rr.CustomerID, rr.ProductID, rr.ProductName, rr.ProductDailyRateCents, rr.Quantity,
		rr.RentalPeriod.StartDate, rr.RentalPeriod.EndDate, rr.RentalPeriod.DurationType, rr.RentalPeriod.DurationValue,
		rr.TotalAmountCents, rr.Status, rr.PaymentStatus, rr.PaymentAmountCents, rr.PaymentDueDate, rr.DeliveryAddress, rr.AdminNotes,
		rr.CreatedAt, rr.UpdatedAt).Scan(&rr.ID)
	logger.DatabaseResult("INSERT", 1, err, "rentalRequestID", rr.ID)

	if err != nil {
		logger.ExitMethodWithError("rentalRequestRepository.Create", err)
		return err
	}
	logger.ExitMethod("rentalRequestRepository.Create", "rentalRequestID", rr.ID)
	return nil
}

func (r *rentalRequestRepository) GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	query := `SELECT ` + rentalRequestColumns + ` FROM rental_requests WHERE id = $1`
	return scanRentalRequest(r.db.QueryRowContext(ctx, query, id))
}

func (r *rentalRequestRepository) Update(ctx context.Context, rr *domain.RentalRequest) error {
	query := `UPDATE rental_requests SET status=$1, payment_status=$2, payment_amount_cents=$3, admin_notes=$4, approved_by=$5, approved_at=$6, rejected_at=$7, updated_at=$8 WHERE id=$9`
	rr.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, rr.Status, rr.PaymentStatus, rr.PaymentAmountCents, rr.AdminNotes, rr.ApprovedBy, rr.ApprovedAt, rr.RejectedAt, rr.UpdatedAt, rr.ID)
	return err
}

func (r *rentalRequestRepository) ListByCustomer(ctx context.Context, customerID int32, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	sql := `SELECT ` + rentalRequestColumns + ` FROM rental_requests WHERE customer_id = $1`
	return r.list(ctx, sql, []any{customerID}, status, page, pageSize)
}

func (r *rentalRequestRepository) List(ctx context.Context, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	sql := `SELECT ` + rentalRequestColumns + ` FROM rental_requests WHERE TRUE`
	return r.list(ctx, sql, nil, status, page, pageSize)
}

func (r *rentalRequestRepository) list(ctx context.Context, sql string, args []any, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	limit, offset := pageOffset(page, pageSize)
	if status != "" {
		args = append(args, status)
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var count int32
	countSql := "SELECT count(*) FROM (" + sql + ") as sub"
	if err := r.db.QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sql += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var requests []domain.RentalRequest
	for rows.Next() {
		rr, err := scanRentalRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *rr)
	}
	return requests, count, rows.Err()
}

func (r *rentalRequestRepository) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.RentalRequestStatus]int32, error) {
	query := `SELECT status, count(*) FROM rental_requests WHERE created_at >= $1 AND created_at < $2 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.RentalRequestStatus]int32)
	for rows.Next() {
		var status domain.RentalRequestStatus
		var n int32
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
