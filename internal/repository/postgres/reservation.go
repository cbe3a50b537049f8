package postgres

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type reservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, rental_request_id, customer_id, product_id, quantity, start_date, end_date, total_amount_cents, status,
	scheduled_pickup_date, scheduled_delivery_date, scheduled_return_date, actual_pickup_date, actual_delivery_date, actual_return_date,
	pickup_notes, delivery_notes, return_notes, cancellation_reason, assigned_pickup_member, assigned_delivery_member, assigned_return_member,
	is_active, created_at, updated_at`

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	err := row.Scan(&res.ID, &res.RentalRequestID, &res.CustomerID, &res.ProductID, &res.Quantity, &res.StartDate, &res.EndDate, &res.TotalAmountCents, &res.Status,
		&res.ScheduledPickupDate, &res.ScheduledDeliveryDate, &res.ScheduledReturnDate, &res.ActualPickupDate, &res.ActualDeliveryDate, &res.ActualReturnDate,
		&res.PickupNotes, &res.DeliveryNotes, &res.ReturnNotes, &res.CancellationReason, &res.AssignedPickupMember, &res.AssignedDeliveryMember, &res.AssignedReturnMember,
		&res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	query := `INSERT INTO reservations (rental_request_id, customer_id, product_id, quantity, start_date, end_date, total_amount_cents, status,
	          scheduled_pickup_date, scheduled_delivery_date, scheduled_return_date, is_active, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now

	logger.DatabaseCall("INSERT", "reservations", "rentalRequestID", res.RentalRequestID)
	err := r.db.QueryRowContext(ctx, query, res.RentalRequestID, res.CustomerID, res.ProductID, res.Quantity, res.StartDate, res.EndDate, res.TotalAmountCents, res.Status,
		res.ScheduledPickupDate, res.ScheduledDeliveryDate, res.ScheduledReturnDate, res.IsActive, res.CreatedAt, res.UpdatedAt).Scan(&res.ID)
	logger.DatabaseResult("INSERT", 1, err, "reservationID", res.ID)
	return mapUniqueViolation(err)
}

func (r *reservationRepository) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, query, id))
}

func (r *reservationRepository) GetByRentalRequest(ctx context.Context, rentalRequestID int32) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE rental_request_id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, query, rentalRequestID))
}

func (r *reservationRepository) ExistsForRentalRequest(ctx context.Context, rentalRequestID int32) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE rental_request_id = $1)`, rentalRequestID).Scan(&exists)
	return exists, err
}

func (r *reservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	query := `UPDATE reservations SET status=$1, actual_pickup_date=$2, actual_delivery_date=$3, actual_return_date=$4,
	          pickup_notes=$5, delivery_notes=$6, return_notes=$7, cancellation_reason=$8,
	          assigned_pickup_member=$9, assigned_delivery_member=$10, assigned_return_member=$11, is_active=$12, updated_at=$13 WHERE id=$14`
	res.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, res.Status, res.ActualPickupDate, res.ActualDeliveryDate, res.ActualReturnDate,
		res.PickupNotes, res.DeliveryNotes, res.ReturnNotes, res.CancellationReason,
		res.AssignedPickupMember, res.AssignedDeliveryMember, res.AssignedReturnMember, res.IsActive, res.UpdatedAt, res.ID)
	return err
}

func (r *reservationRepository) List(ctx context.Context, status string, customerID *int32, page, pageSize int32) ([]domain.Reservation, int32, error) {
	limit, offset := pageOffset(page, pageSize)
	sql := `SELECT ` + reservationColumns + ` FROM reservations WHERE TRUE`
	var args []any
	if status != "" {
		args = append(args, status)
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if customerID != nil {
		args = append(args, *customerID)
		sql += fmt.Sprintf(" AND customer_id = $%d", len(args))
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

	var reservations []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, count, rows.Err()
}

func (r *reservationRepository) CountActive(ctx context.Context) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM reservations WHERE is_active`).Scan(&count)
	return count, err
}
