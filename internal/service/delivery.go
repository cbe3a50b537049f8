package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type deliveryService struct {
	repos        *repository.Repos
	tx           repository.Transactor
	reservations ReservationService
	now          func() time.Time
}

func NewDeliveryService(repos *repository.Repos, tx repository.Transactor, reservations ReservationService) DeliveryService {
	return &deliveryService{
		repos:        repos,
		tx:           tx,
		reservations: reservations,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// UpdateStatus moves an operation through its state machine. Completing an
// operation advances the parent reservation when it is waiting for it; stock is
// only ever touched by the reservation transition.
func (s *deliveryService) UpdateStatus(ctx context.Context, id int32, status domain.DeliveryStatus, staffID *int32, notes string) (*domain.Delivery, error) {
	logger.EnterMethod("deliveryService.UpdateStatus", "deliveryID", id, "status", status)

	var d *domain.Delivery
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		d, err = r.Deliveries.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("delivery")
			}
			return err
		}
		if !d.Status.CanTransitionTo(status) {
			return apperr.InvalidState(fmt.Sprintf("cannot change delivery status from %s to %s", d.Status, status))
		}

		now := s.now()
		d.Status = status
		switch status {
		case domain.DeliveryStatusInProgress:
			d.StartedAt = &now
		case domain.DeliveryStatusCompleted:
			d.CompletedAt = &now
		}
		if staffID != nil {
			d.AssignedTo = staffID
		}
		if notes != "" {
			d.Notes = notes
		}
		if err := r.Deliveries.Update(ctx, d); err != nil {
			return err
		}

		if err := appendEvent(ctx, r.Outbox, "delivery", d.ID, domain.EventDeliveryStatus, map[string]any{
			"delivery_id":    d.ID,
			"reservation_id": d.ReservationID,
			"operation_type": d.OperationType,
			"status":         d.Status,
		}); err != nil {
			return err
		}

		if status != domain.DeliveryStatusCompleted {
			return nil
		}

		res, err := r.Reservations.GetByID(ctx, d.ReservationID)
		if err != nil {
			return fmt.Errorf("failed to load reservation %d: %w", d.ReservationID, err)
		}
		target := d.OperationType.ReservationTarget()
		if res.Status.CanTransitionTo(target) {
			return s.reservations.TransitionWithin(ctx, r, res, target, d.AssignedTo, notes)
		}
		// The reservation already moved on, so only the customer hears about the operation
		return notifyUser(ctx, r.Notifications, res.CustomerID, domain.NotificationDeliveryCompleted,
			"Operation completed",
			fmt.Sprintf("The %s for reservation #%d has been completed", d.OperationType, res.ID),
			map[string]string{"delivery_id": idString(d.ID), "reservation_id": idString(res.ID)})
	})
	if err != nil {
		logger.ExitMethodWithError("deliveryService.UpdateStatus", err)
		return nil, err
	}

	logger.ExitMethod("deliveryService.UpdateStatus", "deliveryID", d.ID, "status", d.Status)
	return d, nil
}

func (s *deliveryService) Assign(ctx context.Context, id, staffID int32) (*domain.Delivery, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Status.IsOpen() {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot assign a %s delivery", d.Status))
	}
	if _, err := s.repos.Users.GetByID(ctx, staffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("staff member")
		}
		return nil, err
	}
	d.AssignedTo = &staffID
	if err := s.repos.Deliveries.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *deliveryService) Reschedule(ctx context.Context, id int32, date time.Time) (*domain.Delivery, error) {
	if date.IsZero() {
		return nil, apperr.Validation("scheduled date is required")
	}
	var d *domain.Delivery
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		d, err = r.Deliveries.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("delivery")
			}
			return err
		}
		if d.Status != domain.DeliveryStatusScheduled {
			return apperr.InvalidState("only scheduled deliveries can be rescheduled")
		}
		d.ScheduledDate = date.UTC()
		if err := r.Deliveries.Update(ctx, d); err != nil {
			return err
		}
		res, err := r.Reservations.GetByID(ctx, d.ReservationID)
		if err != nil {
			return fmt.Errorf("failed to load reservation %d: %w", d.ReservationID, err)
		}
		return notifyUser(ctx, r.Notifications, res.CustomerID, domain.NotificationDeliveryScheduled,
			"Schedule updated",
			fmt.Sprintf("The %s for reservation #%d is now scheduled for %s", d.OperationType, res.ID, d.ScheduledDate.Format("2006-01-02")),
			map[string]string{"delivery_id": idString(d.ID), "reservation_id": idString(res.ID)})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *deliveryService) Get(ctx context.Context, id int32) (*domain.Delivery, error) {
	d, err := s.repos.Deliveries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("delivery")
		}
		return nil, err
	}
	return d, nil
}

func (s *deliveryService) ListByReservation(ctx context.Context, caller Caller, reservationID int32) ([]domain.Delivery, error) {
	res, err := s.repos.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("reservation")
		}
		return nil, err
	}
	if !caller.IsAdmin() && res.CustomerID != caller.UserID {
		return nil, apperr.Forbidden("you do not have access to this reservation")
	}
	return s.repos.Deliveries.ListByReservation(ctx, reservationID)
}

func (s *deliveryService) List(ctx context.Context, filter domain.DeliveryFilter) ([]domain.Delivery, int32, error) {
	if filter.Status != "" && !validDeliveryStatus(filter.Status) {
		return nil, 0, apperr.Validation(fmt.Sprintf("invalid delivery status %q", filter.Status))
	}
	if filter.OperationType != "" && !filter.OperationType.Valid() {
		return nil, 0, apperr.Validation(fmt.Sprintf("invalid operation type %q", filter.OperationType))
	}
	return s.repos.Deliveries.List(ctx, filter)
}

func (s *deliveryService) Document(ctx context.Context, id int32) (*domain.OperationDocument, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.repos.Reservations.GetByID(ctx, d.ReservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %d: %w", d.ReservationID, err)
	}
	doc, err := buildDocument(ctx, s.repos, res)
	if err != nil {
		return nil, err
	}
	scheduled := d.ScheduledDate
	doc.DocumentType = string(d.OperationType) + "_operation"
	doc.OperationType = d.OperationType
	doc.Status = string(d.Status)
	doc.ScheduledDate = &scheduled
	doc.Notes = d.Notes
	if d.Address != "" {
		doc.Address = d.Address
	}
	doc.Checklist = domain.OperationChecklists[d.OperationType]
	return doc, nil
}

func validDeliveryStatus(s domain.DeliveryStatus) bool {
	switch s {
	case domain.DeliveryStatusScheduled, domain.DeliveryStatusInProgress, domain.DeliveryStatusCompleted, domain.DeliveryStatusCancelled:
		return true
	}
	return false
}
