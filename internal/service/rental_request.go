package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/utils"
)

type rentalRequestService struct {
	repos   *repository.Repos
	tx      repository.Transactor
	billing config.BillingConfig
	now     func() time.Time
}

func NewRentalRequestService(repos *repository.Repos, tx repository.Transactor, billing config.BillingConfig) RentalRequestService {
	return &rentalRequestService{
		repos:   repos,
		tx:      tx,
		billing: billing,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *rentalRequestService) Create(ctx context.Context, customerID int32, in CreateRentalRequestInput) (*domain.RentalRequest, error) {
	logger.EnterMethod("rentalRequestService.Create", "customerID", customerID, "productID", in.ProductID, "quantity", in.Quantity)

	product, err := s.repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}
	if !product.IsRentable {
		return nil, apperr.Validation("product is not available for rent")
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	if product.Quantity < in.Quantity {
		return nil, apperr.Validation(fmt.Sprintf("insufficient stock: %d available", product.Quantity))
	}
	days, err := utils.RentalDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	biz, err := s.repos.Settings.GetAdminBusinessSettings(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if biz != nil {
		if days < int64(biz.MinRentalDays) || days > int64(biz.MaxRentalDays) {
			return nil, apperr.Validation(fmt.Sprintf("rental period must be between %d and %d days", biz.MinRentalDays, biz.MaxRentalDays))
		}
	}

	now := s.now()
	rr := &domain.RentalRequest{
		CustomerID:            customerID,
		ProductID:             product.ID,
		ProductName:           product.Name,
		ProductDailyRateCents: product.DailyRateCents,
		Quantity:              in.Quantity,
		RentalPeriod: domain.RentalPeriod{
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			DurationType:  in.DurationType,
			DurationValue: in.DurationValue,
		},
		TotalAmountCents: utils.DailyRentalCost(product.DailyRateCents, days, in.Quantity),
		Status:           domain.RentalRequestStatusPending,
		PaymentStatus:    domain.PaymentStatusPending,
		PaymentDueDate:   now.AddDate(0, 0, s.billing.PaymentDueDays),
		DeliveryAddress:  in.DeliveryAddress,
	}
	if rr.RentalPeriod.DurationType == "" {
		rr.RentalPeriod.DurationType = string(domain.PricingUnitDay)
		rr.RentalPeriod.DurationValue = int32(days)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.RentalRequests.Create(ctx, rr); err != nil {
			return err
		}
		if err := notifyUser(ctx, r.Notifications, customerID, domain.NotificationRentalRequestCreated,
			"Rental request submitted",
			fmt.Sprintf("Your request #%d for %d x %s is awaiting approval", rr.ID, rr.Quantity, rr.ProductName),
			map[string]string{"rental_request_id": idString(rr.ID)}); err != nil {
			return err
		}
		return appendEvent(ctx, r.Outbox, "rental_request", rr.ID, domain.EventRentalRequestCreated, rr)
	})
	if err != nil {
		logger.ExitMethodWithError("rentalRequestService.Create", err)
		return nil, err
	}

	notifyAdmins(ctx, s.repos.Users, s.repos.Notifications, domain.NotificationRentalRequestCreated,
		"New rental request",
		fmt.Sprintf("Request #%d: %d x %s from %s to %s", rr.ID, rr.Quantity, rr.ProductName,
			rr.RentalPeriod.StartDate.Format("2006-01-02"), rr.RentalPeriod.EndDate.Format("2006-01-02")),
		map[string]string{"rental_request_id": idString(rr.ID)})

	if biz != nil && biz.AutoApproveRequests {
		approved, err := s.approve(ctx, rr, nil, "auto-approved")
		if err != nil {
			logger.ErrorContext(ctx, "Auto-approval failed", "rentalRequestID", rr.ID, "error", err)
			return rr, nil
		}
		rr = approved
	}

	logger.ExitMethod("rentalRequestService.Create", "rentalRequestID", rr.ID)
	return rr, nil
}

func (s *rentalRequestService) Approve(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error) {
	rr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, rr, &adminID, notes)
}

func (s *rentalRequestService) approve(ctx context.Context, rr *domain.RentalRequest, adminID *int32, notes string) (*domain.RentalRequest, error) {
	if rr.Status != domain.RentalRequestStatusPending {
		return nil, apperr.InvalidState("only pending rental requests can be approved")
	}
	prefs, err := preferencesOrDefault(ctx, s.repos.Settings, rr.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rr.Status = domain.RentalRequestStatusApproved
	rr.ApprovedBy = adminID
	rr.ApprovedAt = &now
	rr.AdminNotes = notes

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.RentalRequests.Update(ctx, rr); err != nil {
			return err
		}
		if err := notifyUser(ctx, r.Notifications, rr.CustomerID, domain.NotificationRentalRequestApproved,
			"Rental request approved",
			fmt.Sprintf("Your request #%d was approved. Payment of %s is due by %s", rr.ID, formatCents(rr.TotalAmountCents), rr.PaymentDueDate.Format("2006-01-02")),
			map[string]string{"rental_request_id": idString(rr.ID)}); err != nil {
			return err
		}
		if err := s.schedulePaymentReminders(ctx, r.Notifications, rr, prefs.PaymentReminderDays, now); err != nil {
			return err
		}
		return appendEvent(ctx, r.Outbox, "rental_request", rr.ID, domain.EventRentalRequestApproved, rr)
	})
	if err != nil {
		return nil, err
	}
	return rr, nil
}

// schedulePaymentReminders queues one reminder per offset before the payment due date.
// Offsets whose reminder time has already passed are skipped.
func (s *rentalRequestService) schedulePaymentReminders(ctx context.Context, repo repository.NotificationRepository, rr *domain.RentalRequest, offsets []int32, now time.Time) error {
	for _, d := range offsets {
		at := rr.PaymentDueDate.AddDate(0, 0, -int(d))
		if !at.After(now) {
			continue
		}
		n := &domain.Notification{
			UserID:       rr.CustomerID,
			Type:         domain.NotificationPaymentReminder,
			Title:        "Payment reminder",
			Message:      fmt.Sprintf("Payment of %s for request #%d is due in %d day(s)", formatCents(rr.TotalAmountCents), rr.ID, d),
			ScheduledFor: &at,
			Metadata:     map[string]string{"rental_request_id": idString(rr.ID), "days_before": fmt.Sprintf("%d", d)},
		}
		if err := repo.Create(ctx, n); err != nil {
			return fmt.Errorf("failed to schedule payment reminder: %w", err)
		}
	}
	return nil
}

func (s *rentalRequestService) Reject(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, apperr.Validation("admin notes are required when rejecting a request")
	}
	rr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.Status != domain.RentalRequestStatusPending {
		return nil, apperr.InvalidState("only pending rental requests can be rejected")
	}

	now := s.now()
	rr.Status = domain.RentalRequestStatusRejected
	rr.RejectedAt = &now
	rr.ApprovedBy = &adminID
	rr.AdminNotes = notes

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.RentalRequests.Update(ctx, rr); err != nil {
			return err
		}
		return notifyUser(ctx, r.Notifications, rr.CustomerID, domain.NotificationRentalRequestRejected,
			"Rental request rejected",
			fmt.Sprintf("Your request #%d was rejected: %s", rr.ID, notes),
			map[string]string{"rental_request_id": idString(rr.ID)})
	})
	if err != nil {
		return nil, err
	}
	return rr, nil
}

func (s *rentalRequestService) Cancel(ctx context.Context, id, customerID int32) (*domain.RentalRequest, error) {
	rr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.CustomerID != customerID {
		return nil, apperr.Forbidden("you can only cancel your own rental requests")
	}
	if rr.Status != domain.RentalRequestStatusPending {
		return nil, apperr.InvalidState("only pending rental requests can be cancelled")
	}

	rr.Status = domain.RentalRequestStatusCancelled
	if err := s.repos.RentalRequests.Update(ctx, rr); err != nil {
		return nil, err
	}

	notifyAdmins(ctx, s.repos.Users, s.repos.Notifications, domain.NotificationRentalRequestCancelled,
		"Rental request cancelled",
		fmt.Sprintf("Request #%d for %s was cancelled by the customer", rr.ID, rr.ProductName),
		map[string]string{"rental_request_id": idString(rr.ID)})
	return rr, nil
}

// ConfirmOrder marks an approved and paid request as confirmed.
// The reservation is created separately by an admin.
func (s *rentalRequestService) ConfirmOrder(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	rr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.Status != domain.RentalRequestStatusApproved {
		return nil, apperr.InvalidState("only approved rental requests can be confirmed")
	}
	if rr.PaymentStatus != domain.PaymentStatusPaid {
		return nil, apperr.InvalidState("rental request must be paid before confirmation")
	}

	rr.Status = domain.RentalRequestStatusConfirmed
	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.RentalRequests.Update(ctx, rr); err != nil {
			return err
		}
		return notifyUser(ctx, r.Notifications, rr.CustomerID, domain.NotificationOrderConfirmed,
			"Order confirmed",
			fmt.Sprintf("Your order #%d for %s is confirmed", rr.ID, rr.ProductName),
			map[string]string{"rental_request_id": idString(rr.ID)})
	})
	if err != nil {
		return nil, err
	}
	return rr, nil
}

func (s *rentalRequestService) UpdatePaymentStatus(ctx context.Context, id int32, status domain.PaymentStatus, amountCents int64) (*domain.RentalRequest, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid payment status")
	}
	if amountCents < 0 {
		return nil, apperr.Validation("payment amount cannot be negative")
	}
	rr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	becamePaid := status == domain.PaymentStatusPaid && rr.PaymentStatus != domain.PaymentStatusPaid
	rr.PaymentStatus = status
	rr.PaymentAmountCents = amountCents

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := r.RentalRequests.Update(ctx, rr); err != nil {
			return err
		}
		if !becamePaid {
			return nil
		}
		return notifyUser(ctx, r.Notifications, rr.CustomerID, domain.NotificationPaymentReceived,
			"Payment received",
			fmt.Sprintf("We received %s for request #%d", formatCents(amountCents), rr.ID),
			map[string]string{"rental_request_id": idString(rr.ID)})
	})
	if err != nil {
		return nil, err
	}
	return rr, nil
}

func (s *rentalRequestService) Get(ctx context.Context, caller Caller, id int32) (*domain.RentalRequest, error) {
	rr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && rr.CustomerID != caller.UserID {
		return nil, apperr.Forbidden("you do not have access to this rental request")
	}
	return rr, nil
}

func (s *rentalRequestService) ListMine(ctx context.Context, customerID int32, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	return s.repos.RentalRequests.ListByCustomer(ctx, customerID, status, page, pageSize)
}

func (s *rentalRequestService) ListAll(ctx context.Context, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	return s.repos.RentalRequests.List(ctx, status, page, pageSize)
}

func (s *rentalRequestService) load(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	rr, err := s.repos.RentalRequests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("rental request")
		}
		return nil, err
	}
	return rr, nil
}
