package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type invoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, invoice_number, rental_request_id, reservation_id, customer_id, product_id, quantity, start_date, end_date, duration_type, duration_value,
	pricing, subtotal_cents, security_deposit_cents, grace_period_days, late_fee_rate, max_daily_late_fee_cents, late_fees_cents, total_amount_cents,
	payment_status, payment_details, status, due_date, issued_date, paid_date, notes, created_at, updated_at`

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	var pricing, details []byte
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.RentalRequestID, &inv.ReservationID, &inv.CustomerID, &inv.ProductID, &inv.Quantity,
		&inv.RentalPeriod.StartDate, &inv.RentalPeriod.EndDate, &inv.RentalPeriod.DurationType, &inv.RentalPeriod.DurationValue,
		&pricing, &inv.SubtotalCents, &inv.SecurityDepositCents, &inv.LateFeeConfig.GracePeriodDays, &inv.LateFeeConfig.LateFeeRate,
		&inv.LateFeeConfig.MaxDailyLateFeeCents, &inv.LateFeesCents, &inv.TotalAmountCents,
		&inv.PaymentStatus, &details, &inv.Status, &inv.DueDate, &inv.IssuedDate, &inv.PaidDate, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pricing, &inv.Pricing); err != nil {
		return nil, fmt.Errorf("decode pricing of invoice %d: %w", inv.ID, err)
	}
	if err := json.Unmarshal(details, &inv.PaymentDetails); err != nil {
		return nil, fmt.Errorf("decode payment details of invoice %d: %w", inv.ID, err)
	}
	return inv, nil
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	logger.EnterMethod("invoiceRepository.Create", "rentalRequestID", inv.RentalRequestID)

	pricing, err := json.Marshal(inv.Pricing)
	if err != nil {
		return err
	}
	details, err := json.Marshal(inv.PaymentDetails)
	if err != nil {
		return err
	}

	query := `INSERT INTO invoices (invoice_number, rental_request_id, reservation_id, customer_id, product_id, quantity, start_date, end_date, duration_type, duration_value,
	          pricing, subtotal_cents, security_deposit_cents, grace_period_days, late_fee_rate, max_daily_late_fee_cents, late_fees_cents, total_amount_cents,
	          payment_status, payment_details, status, due_date, issued_date, paid_date, notes, created_at, updated_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27) RETURNING id`
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	logger.DatabaseCall("INSERT", "invoices", "invoiceNumber", inv.InvoiceNumber)
	err = r.db.QueryRowContext(ctx, query, inv.InvoiceNumber, inv.RentalRequestID, inv.ReservationID, inv.CustomerID, inv.ProductID, inv.Quantity,
		inv.RentalPeriod.StartDate, inv.RentalPeriod.EndDate, inv.RentalPeriod.DurationType, inv.RentalPeriod.DurationValue,
		pricing, inv.SubtotalCents, inv.SecurityDepositCents, inv.LateFeeConfig.GracePeriodDays, inv.LateFeeConfig.LateFeeRate,
		inv.LateFeeConfig.MaxDailyLateFeeCents, inv.LateFeesCents, inv.TotalAmountCents,
		inv.PaymentStatus, details, inv.Status, inv.DueDate, inv.IssuedDate, inv.PaidDate, inv.Notes, inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
	logger.DatabaseResult("INSERT", 1, err, "invoiceID", inv.ID)

	if err != nil {
		logger.ExitMethodWithError("invoiceRepository.Create", err)
		return mapUniqueViolation(err)
	}
	logger.ExitMethod("invoiceRepository.Create", "invoiceID", inv.ID)
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id int32) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return scanInvoice(r.db.QueryRowContext(ctx, query, id))
}

func (r *invoiceRepository) ExistsForRentalRequest(ctx context.Context, rentalRequestID int32) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM invoices WHERE rental_request_id = $1)`, rentalRequestID).Scan(&exists)
	return exists, err
}

func (r *invoiceRepository) Update(ctx context.Context, inv *domain.Invoice) error {
	details, err := json.Marshal(inv.PaymentDetails)
	if err != nil {
		return err
	}
	query := `UPDATE invoices SET late_fees_cents=$1, total_amount_cents=$2, payment_status=$3, payment_details=$4, status=$5,
	          due_date=$6, issued_date=$7, paid_date=$8, notes=$9, updated_at=$10 WHERE id=$11`
	inv.UpdatedAt = time.Now().UTC()

	logger.DatabaseCall("UPDATE", "invoices", "invoiceID", inv.ID)
	result, err := r.db.ExecContext(ctx, query, inv.LateFeesCents, inv.TotalAmountCents, inv.PaymentStatus, details, inv.Status,
		inv.DueDate, inv.IssuedDate, inv.PaidDate, inv.Notes, inv.UpdatedAt, inv.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	return affectedOne("UPDATE", result)
}

func (r *invoiceRepository) Delete(ctx context.Context, id int32) error {
	logger.DatabaseCall("DELETE", "invoices", "invoiceID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return err
	}
	return affectedOne("DELETE", result)
}

// affectedOne reports sql.ErrNoRows when the statement matched no row
func affectedOne(operation string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult(operation, rows, nil)
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int32, error) {
	limit, offset := pageOffset(filter.Page, filter.PageSize)
	stmt := `SELECT ` + invoiceColumns + ` FROM invoices WHERE TRUE`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		stmt += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		stmt += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}

	var count int32
	countSql := "SELECT count(*) FROM (" + stmt + ") as sub"
	if err := r.db.QueryRowContext(ctx, countSql, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	stmt += fmt.Sprintf(" ORDER BY issued_date DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	invoices, err := r.query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, err
	}
	return invoices, count, nil
}

// ListLateFeeCandidates returns sent or overdue invoices past their due date
func (r *invoiceRepository) ListLateFeeCandidates(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	stmt := `SELECT ` + invoiceColumns + ` FROM invoices
	        WHERE status IN ('sent', 'overdue') AND due_date < $1
	        ORDER BY id`
	return r.query(ctx, stmt, now)
}

// ListWithOpenInstallments returns issued, unpaid invoices that are paid in installments
func (r *invoiceRepository) ListWithOpenInstallments(ctx context.Context) ([]domain.Invoice, error) {
	stmt := `SELECT ` + invoiceColumns + ` FROM invoices
	        WHERE status IN ('sent', 'overdue') AND payment_status <> 'paid'
	          AND payment_details->>'payment_method' = 'partial_deposit'
	        ORDER BY id`
	return r.query(ctx, stmt)
}

func (r *invoiceRepository) query(ctx context.Context, stmt string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) Totals(ctx context.Context, from, to time.Time) (repository.InvoiceTotals, error) {
	query := `SELECT
	            COALESCE(SUM((payment_details->>'upfront_payment_cents')::bigint), 0),
	            COALESCE(SUM((payment_details->>'remaining_balance_cents')::bigint) FILTER (WHERE status <> 'cancelled'), 0),
	            COALESCE(SUM(late_fees_cents), 0),
	            count(*) FILTER (WHERE status = 'overdue')
	          FROM invoices WHERE issued_date >= $1 AND issued_date < $2`
	var t repository.InvoiceTotals
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(&t.RevenueCollectedCents, &t.OutstandingCents, &t.LateFeesCents, &t.OverdueCount)
	return t, err
}
