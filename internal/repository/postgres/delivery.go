package postgres

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type deliveryRepository struct {
	db DBTX
}

func NewDeliveryRepository(db DBTX) repository.DeliveryRepository {
	return &deliveryRepository{db: db}
}

const deliveryColumns = `id, reservation_id, rental_request_id, operation_type, status, scheduled_date, started_at, completed_at, assigned_to, address, notes, created_at, updated_at`

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	d := &domain.Delivery{}
	err := row.Scan(&d.ID, &d.ReservationID, &d.RentalRequestID, &d.OperationType, &d.Status, &d.ScheduledDate, &d.StartedAt, &d.CompletedAt, &d.AssignedTo, &d.Address, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *deliveryRepository) Create(ctx context.Context, d *domain.Delivery) error {
	query := `INSERT INTO deliveries (reservation_id, rental_request_id, operation_type, status, scheduled_date, assigned_to, address, notes, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	logger.DatabaseCall("INSERT", "deliveries", "reservationID", d.ReservationID, "operation", d.OperationType)
	err := r.db.QueryRowContext(ctx, query, d.ReservationID, d.RentalRequestID, d.OperationType, d.Status, d.ScheduledDate, d.AssignedTo, d.Address, d.Notes, d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
	logger.DatabaseResult("INSERT", 1, err, "deliveryID", d.ID)
	return err
}

func (r *deliveryRepository) GetByID(ctx context.Context, id int32) (*domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1`
	return scanDelivery(r.db.QueryRowContext(ctx, query, id))
}

func (r *deliveryRepository) Update(ctx context.Context, d *domain.Delivery) error {
	query := `UPDATE deliveries SET status=$1, scheduled_date=$2, started_at=$3, completed_at=$4, assigned_to=$5, notes=$6, updated_at=$7 WHERE id=$8`
	d.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, d.Status, d.ScheduledDate, d.StartedAt, d.CompletedAt, d.AssignedTo, d.Notes, d.UpdatedAt, d.ID)
	return err
}

func (r *deliveryRepository) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE reservation_id = $1 ORDER BY scheduled_date, id`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, *d)
	}
	return deliveries, rows.Err()
}

func (r *deliveryRepository) List(ctx context.Context, filter domain.DeliveryFilter) ([]domain.Delivery, int32, error) {
	limit, offset := pageOffset(filter.Page, filter.PageSize)
	sql := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE TRUE`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.OperationType != "" {
		args = append(args, filter.OperationType)
		sql += fmt.Sprintf(" AND operation_type = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Format("2006-01-02"))
		sql += fmt.Sprintf(" AND scheduled_date::date = $%d::date", len(args))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		sql += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}

	var count int32
	countSql := "SELECT count(*) FROM (" + sql + ") as sub"
	if err := r.db.QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sql += fmt.Sprintf(" ORDER BY scheduled_date, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deliveries []domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, err
		}
		deliveries = append(deliveries, *d)
	}
	return deliveries, count, rows.Err()
}

func (r *deliveryRepository) CancelOpenByReservation(ctx context.Context, reservationID int32) (int64, error) {
	query := `UPDATE deliveries SET status = 'cancelled', updated_at = $1 WHERE reservation_id = $2 AND status IN ('scheduled', 'in_progress')`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), reservationID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
