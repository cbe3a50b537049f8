package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/utils"

	"github.com/google/uuid"
)

var errInvoiceExists = apperr.Validation("invoice already exists for this rental request")

type invoiceService struct {
	repos    *repository.Repos
	tx       repository.Transactor
	billing  config.BillingConfig
	renderer InvoiceRenderer
	email    EmailSender
	now      func() time.Time
}

func NewInvoiceService(repos *repository.Repos, tx repository.Transactor, billing config.BillingConfig, renderer InvoiceRenderer, email EmailSender) InvoiceService {
	return &invoiceService{
		repos:    repos,
		tx:       tx,
		billing:  billing,
		renderer: renderer,
		email:    email,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// newInvoiceNumber returns INV-YYYYMM- followed by eight uppercase hex characters
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), suffix)
}

func (s *invoiceService) Create(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.Create", "rentalRequestID", in.RentalRequestID, "paymentMethod", in.PaymentMethod)

	rr, err := s.repos.RentalRequests.GetByID(ctx, in.RentalRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("rental request")
		}
		return nil, err
	}
	if rr.Status != domain.RentalRequestStatusConfirmed {
		return nil, apperr.InvalidState("rental request must be confirmed before it can be invoiced")
	}
	res, err := s.repos.Reservations.GetByRentalRequest(ctx, rr.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Validation("rental request has no reservation")
		}
		return nil, err
	}
	exists, err := s.repos.Invoices.ExistsForRentalRequest(ctx, rr.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errInvoiceExists
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodFull
	}
	if method != domain.PaymentMethodFull && method != domain.PaymentMethodPartialDeposit {
		return nil, apperr.Validation(fmt.Sprintf("invalid payment method %q", in.PaymentMethod))
	}
	if in.UpfrontPaymentCents < 0 {
		return nil, apperr.Validation("upfront payment cannot be negative")
	}
	deposit := s.billing.SecurityDepositCents
	if in.SecurityDepositCents != nil {
		if *in.SecurityDepositCents < 0 {
			return nil, apperr.Validation("security deposit cannot be negative")
		}
		deposit = *in.SecurityDepositCents
	}

	product, err := s.repos.Products.GetByID(ctx, rr.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", rr.ProductID, err)
	}
	days, err := utils.RentalDays(rr.RentalPeriod.StartDate, rr.RentalPeriod.EndDate)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	subtotal := utils.TieredSubtotal(product.Rates(), days, rr.Quantity)

	total := subtotal.SubtotalCents + deposit
	if in.UpfrontPaymentCents > total {
		return nil, apperr.Validation("upfront payment cannot exceed the invoice total")
	}

	now := s.now()
	inv := &domain.Invoice{
		InvoiceNumber:        newInvoiceNumber(now),
		RentalRequestID:      rr.ID,
		ReservationID:        res.ID,
		CustomerID:           rr.CustomerID,
		ProductID:            rr.ProductID,
		Quantity:             rr.Quantity,
		RentalPeriod:         rr.RentalPeriod,
		Pricing:              product.Rates(),
		SubtotalCents:        subtotal.SubtotalCents,
		SecurityDepositCents: deposit,
		LateFeeConfig: domain.LateFeeConfig{
			GracePeriodDays:      s.billing.GracePeriodDays,
			LateFeeRate:          s.billing.LateFeeFraction(),
			MaxDailyLateFeeCents: s.billing.MaxDailyLateFeeCents,
		},
		PaymentDetails: domain.PaymentDetails{
			UpfrontPaymentCents: in.UpfrontPaymentCents,
			PaymentMethod:       method,
			Installments:        []domain.Installment{},
		},
		Status:     domain.InvoiceStatusDraft,
		IssuedDate: now,
		DueDate:    now.AddDate(0, 0, s.billing.PaymentDueDays),
		Notes:      in.Notes,
	}
	if in.DueDate != nil && !in.DueDate.IsZero() {
		inv.DueDate = in.DueDate.UTC()
	}
	if method == domain.PaymentMethodPartialDeposit && in.UpfrontPaymentCents < total {
		inv.PaymentDetails.Installments = domain.SplitInstallments(total-in.UpfrontPaymentCents,
			res.ScheduledPickupDate, res.ScheduledDeliveryDate)
	}
	inv.Recalculate(now)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.Invoices.Create(ctx, inv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errInvoiceExists
			}
			return err
		}
		if err := notifyUser(ctx, r.Notifications, inv.CustomerID, domain.NotificationInvoiceCreated,
			"Invoice created",
			fmt.Sprintf("Invoice %s for %s is due on %s", inv.InvoiceNumber, formatCents(inv.TotalAmountCents), inv.DueDate.Format("2006-01-02")),
			map[string]string{"invoice_id": idString(inv.ID), "invoice_number": inv.InvoiceNumber}); err != nil {
			return err
		}
		return appendEvent(ctx, r.Outbox, "invoice", inv.ID, domain.EventInvoiceCreated, map[string]any{
			"invoice_id":     inv.ID,
			"invoice_number": inv.InvoiceNumber,
			"total_cents":    inv.TotalAmountCents,
			"tier":           subtotal.Tier,
		})
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.Create", err)
		return nil, err
	}

	logger.ExitMethod("invoiceService.Create", "invoiceID", inv.ID, "invoiceNumber", inv.InvoiceNumber)
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, caller Caller, id int32) (*domain.Invoice, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && inv.CustomerID != caller.UserID {
		return nil, apperr.Forbidden("you do not have access to this invoice")
	}
	return inv, nil
}

func (s *invoiceService) List(ctx context.Context, caller Caller, status domain.InvoiceStatus, customerID *int32, page, pageSize int32) ([]domain.Invoice, int32, error) {
	filter := domain.InvoiceFilter{Status: status, CustomerID: customerID, Page: page, PageSize: pageSize}
	if !caller.IsAdmin() {
		filter.CustomerID = &caller.UserID
	}
	return s.repos.Invoices.List(ctx, filter)
}

func (s *invoiceService) ProcessPayment(ctx context.Context, caller Caller, id int32, amountCents int64, method string) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.ProcessPayment", "invoiceID", id, "amountCents", amountCents)

	if amountCents <= 0 {
		return nil, apperr.Validation("payment amount must be greater than zero")
	}
	inv, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == domain.InvoiceStatusCancelled {
		return nil, apperr.InvalidState("cannot pay a cancelled invoice")
	}
	if inv.PaymentStatus == domain.InvoicePaymentPaid {
		return nil, apperr.InvalidState("invoice is already paid")
	}

	now := s.now()
	inv.ApplyPayment(amountCents, now)
	inv.Recalculate(now)

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		if inv.PaymentStatus == domain.InvoicePaymentPaid {
			rr, err := r.RentalRequests.GetByID(ctx, inv.RentalRequestID)
			if err != nil {
				return fmt.Errorf("failed to load rental request %d: %w", inv.RentalRequestID, err)
			}
			rr.PaymentStatus = domain.PaymentStatusPaid
			rr.PaymentAmountCents = inv.PaymentDetails.UpfrontPaymentCents
			if err := r.RentalRequests.Update(ctx, rr); err != nil {
				return err
			}
		}
		if err := notifyUser(ctx, r.Notifications, inv.CustomerID, domain.NotificationPaymentReceived,
			"Payment received",
			fmt.Sprintf("We received %s for invoice %s. Remaining balance: %s", formatCents(amountCents), inv.InvoiceNumber, formatCents(inv.PaymentDetails.RemainingBalanceCents)),
			map[string]string{"invoice_id": idString(inv.ID), "method": method}); err != nil {
			return err
		}
		return appendEvent(ctx, r.Outbox, "invoice", inv.ID, domain.EventInvoicePayment, map[string]any{
			"invoice_id":     inv.ID,
			"amount_cents":   amountCents,
			"method":         method,
			"payment_status": inv.PaymentStatus,
		})
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.ProcessPayment", err)
		return nil, err
	}

	logger.ExitMethod("invoiceService.ProcessPayment", "invoiceID", inv.ID, "paymentStatus", inv.PaymentStatus)
	return inv, nil
}

// Send issues a draft invoice to the customer
func (s *invoiceService) Send(ctx context.Context, id int32) (*domain.Invoice, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvoiceStatusDraft {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot send a %s invoice", inv.Status))
	}
	now := s.now()
	inv.Status = domain.InvoiceStatusSent
	inv.IssuedDate = now
	inv.Recalculate(now)
	if err := s.repos.Invoices.Update(ctx, inv); err != nil {
		return nil, err
	}

	sendEmailToUser(ctx, s.repos.Users, s.email, inv.CustomerID,
		fmt.Sprintf("Invoice %s", inv.InvoiceNumber),
		fmt.Sprintf("Your invoice %s totals %s and is due on %s.\n\nPaid so far: %s\nRemaining balance: %s",
			inv.InvoiceNumber, formatCents(inv.TotalAmountCents), inv.DueDate.Format("2006-01-02"),
			formatCents(inv.PaymentDetails.UpfrontPaymentCents), formatCents(inv.PaymentDetails.RemainingBalanceCents)))
	return inv, nil
}

func (s *invoiceService) Cancel(ctx context.Context, id int32) (*domain.Invoice, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.PaymentStatus == domain.InvoicePaymentPaid {
		return nil, apperr.InvalidState("cannot cancel a paid invoice")
	}
	if inv.Status == domain.InvoiceStatusCancelled {
		return nil, apperr.InvalidState("invoice is already cancelled")
	}
	inv.Status = domain.InvoiceStatusCancelled
	if err := s.repos.Invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) Delete(ctx context.Context, id int32) error {
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if inv.PaymentStatus == domain.InvoicePaymentPaid {
		return apperr.InvalidState("cannot delete a paid invoice")
	}
	return s.repos.Invoices.Delete(ctx, id)
}

// UpdateLateFees recalculates every issued invoice past its due date. An invoice
// is written only when its late fees or payment status changed, and the customer
// is told the first time it turns overdue. One failing invoice does not stop the batch.
func (s *invoiceService) UpdateLateFees(ctx context.Context, now time.Time) (int, error) {
	logger.EnterMethod("invoiceService.UpdateLateFees", "now", now)

	invoices, err := s.repos.Invoices.ListLateFeeCandidates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list late fee candidates: %w", err)
	}

	updated := 0
	var errs []error
	for i := range invoices {
		inv := &invoices[i]
		prevFees, prevPayment, prevStatus := inv.LateFeesCents, inv.PaymentStatus, inv.Status
		inv.Recalculate(now)
		if inv.LateFeesCents == prevFees && inv.PaymentStatus == prevPayment {
			continue
		}
		becameOverdue := inv.Status == domain.InvoiceStatusOverdue && prevStatus != domain.InvoiceStatusOverdue

		err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
			if err := r.Invoices.Update(ctx, inv); err != nil {
				return err
			}
			if !becameOverdue {
				return nil
			}
			if err := notifyUser(ctx, r.Notifications, inv.CustomerID, domain.NotificationInvoiceOverdue,
				"Invoice overdue",
				fmt.Sprintf("Invoice %s is overdue. Late fees so far: %s. Amount due: %s", inv.InvoiceNumber, formatCents(inv.LateFeesCents), formatCents(inv.PaymentDetails.RemainingBalanceCents)),
				map[string]string{"invoice_id": idString(inv.ID), "invoice_number": inv.InvoiceNumber}); err != nil {
				return err
			}
			return appendEvent(ctx, r.Outbox, "invoice", inv.ID, domain.EventInvoiceOverdue, map[string]any{
				"invoice_id":      inv.ID,
				"late_fees_cents": inv.LateFeesCents,
			})
		})
		if err != nil {
			logger.ErrorContext(ctx, "Failed to update late fees", "invoiceID", inv.ID, "error", err)
			errs = append(errs, fmt.Errorf("invoice %d: %w", inv.ID, err))
			continue
		}
		updated++
	}

	logger.ExitMethod("invoiceService.UpdateLateFees", "candidates", len(invoices), "updated", updated)
	return updated, errors.Join(errs...)
}

func (s *invoiceService) RemindInstallments(ctx context.Context, now time.Time) (int, error) {
	invoices, err := s.repos.Invoices.ListWithOpenInstallments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list invoices with installments: %w", err)
	}

	horizon := now.Add(24 * time.Hour)
	sent := 0
	for _, inv := range invoices {
		for _, inst := range inv.PaymentDetails.Installments {
			if inst.Paid || inst.DueDate.Before(now) || !inst.DueDate.Before(horizon) {
				continue
			}
			err := notifyUser(ctx, s.repos.Notifications, inv.CustomerID, domain.NotificationPaymentReminder,
				"Installment due",
				fmt.Sprintf("An installment of %s for invoice %s is due on %s", formatCents(inst.AmountCents), inv.InvoiceNumber, inst.DueDate.Format("2006-01-02")),
				map[string]string{"invoice_id": idString(inv.ID), "due_date": inst.DueDate.Format(time.RFC3339)})
			if err != nil {
				logger.ErrorContext(ctx, "Failed to send installment reminder", "invoiceID", inv.ID, "error", err)
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func (s *invoiceService) Document(ctx context.Context, caller Caller, id int32, w io.Writer) (*domain.Invoice, error) {
	inv, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.repos.Users.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %d: %w", inv.CustomerID, err)
	}
	product, err := s.repos.Products.GetByID(ctx, inv.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", inv.ProductID, err)
	}
	if err := s.renderer.Render(w, inv, customer, product); err != nil {
		return nil, apperr.Internal("failed to generate invoice PDF", err)
	}
	return inv, nil
}

func (s *invoiceService) load(ctx context.Context, id int32) (*domain.Invoice, error) {
	inv, err := s.repos.Invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("invoice")
		}
		return nil, err
	}
	return inv, nil
}
