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

var errReservationExists = apperr.Validation("reservation already exists for this rental request")

type reservationService struct {
	repos *repository.Repos
	tx    repository.Transactor
	stock StockService
	email EmailSender
	now   func() time.Time
}

func NewReservationService(repos *repository.Repos, tx repository.Transactor, stock StockService, email EmailSender) ReservationService {
	return &reservationService{
		repos: repos,
		tx:    tx,
		stock: stock,
		email: email,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create turns an approved or already confirmed rental request into a
// reservation; a request carries at most one reservation. Stock, the
// reservation, the request status and the first two operations are written in
// one transaction; nothing is written when stock is insufficient.
func (s *reservationService) Create(ctx context.Context, rentalRequestID, adminID int32, schedule domain.ReservationSchedule) (*domain.Reservation, error) {
	logger.EnterMethod("reservationService.Create", "rentalRequestID", rentalRequestID, "adminID", adminID)

	rr, err := s.repos.RentalRequests.GetByID(ctx, rentalRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("rental request")
		}
		return nil, err
	}
	if rr.Status != domain.RentalRequestStatusApproved && rr.Status != domain.RentalRequestStatusConfirmed {
		return nil, apperr.InvalidState("rental request must be approved or confirmed before it can be reserved")
	}
	exists, err := s.repos.Reservations.ExistsForRentalRequest(ctx, rentalRequestID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errReservationExists
	}

	res := &domain.Reservation{
		RentalRequestID:       rr.ID,
		CustomerID:            rr.CustomerID,
		ProductID:             rr.ProductID,
		Quantity:              rr.Quantity,
		StartDate:             rr.RentalPeriod.StartDate,
		EndDate:               rr.RentalPeriod.EndDate,
		TotalAmountCents:      rr.TotalAmountCents,
		Status:                domain.ReservationStatusReserved,
		ScheduledPickupDate:   dateOr(schedule.PickupDate, rr.RentalPeriod.StartDate),
		ScheduledDeliveryDate: dateOr(schedule.DeliveryDate, rr.RentalPeriod.StartDate),
		ScheduledReturnDate:   dateOr(schedule.ReturnDate, rr.RentalPeriod.EndDate),
		IsActive:              true,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if err := s.stock.Reserve(ctx, r.Stock, rr.ProductID, rr.Quantity); err != nil {
			return err
		}
		if err := r.Reservations.Create(ctx, res); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errReservationExists
			}
			return err
		}

		if rr.Status != domain.RentalRequestStatusConfirmed {
			rr.Status = domain.RentalRequestStatusConfirmed
			if err := r.RentalRequests.Update(ctx, rr); err != nil {
				return err
			}
		}

		for _, op := range []struct {
			typ  domain.OperationType
			date time.Time
		}{
			{domain.OperationTypePickup, res.ScheduledPickupDate},
			{domain.OperationTypeDelivery, res.ScheduledDeliveryDate},
		} {
			d := &domain.Delivery{
				ReservationID:   res.ID,
				RentalRequestID: rr.ID,
				OperationType:   op.typ,
				Status:          domain.DeliveryStatusScheduled,
				ScheduledDate:   op.date,
				Address:         rr.DeliveryAddress,
			}
			if err := r.Deliveries.Create(ctx, d); err != nil {
				return err
			}
		}

		if err := appendEvent(ctx, r.Outbox, "reservation", res.ID, domain.EventReservationCreated, res); err != nil {
			return err
		}
		return notifyUser(ctx, r.Notifications, res.CustomerID, domain.NotificationReservationCreated,
			"Reservation created",
			fmt.Sprintf("Reservation #%d for %s is confirmed. Pickup is scheduled for %s", res.ID, rr.ProductName, res.ScheduledPickupDate.Format("2006-01-02")),
			map[string]string{"reservation_id": idString(res.ID), "rental_request_id": idString(rr.ID)})
	})
	if err != nil {
		logger.ExitMethodWithError("reservationService.Create", err)
		return nil, err
	}

	sendEmailToUser(ctx, s.repos.Users, s.email, res.CustomerID,
		fmt.Sprintf("Reservation #%d confirmed", res.ID),
		fmt.Sprintf("Your reservation for %d x %s from %s to %s is confirmed.\n\nScheduled pickup: %s\nScheduled delivery: %s\nScheduled return: %s",
			res.Quantity, rr.ProductName, res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"),
			res.ScheduledPickupDate.Format("2006-01-02"), res.ScheduledDeliveryDate.Format("2006-01-02"), res.ScheduledReturnDate.Format("2006-01-02")))

	logger.ExitMethod("reservationService.Create", "reservationID", res.ID)
	return res, nil
}

func (s *reservationService) UpdateStatus(ctx context.Context, id int32, status domain.ReservationStatus, memberID *int32, notes string) (*domain.Reservation, error) {
	var res *domain.Reservation
	err := s.tx.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		var err error
		res, err = r.Reservations.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperr.NotFound("reservation")
			}
			return err
		}
		return s.TransitionWithin(ctx, r, res, status, memberID, notes)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

var reservationNotifications = map[domain.ReservationStatus]struct {
	typ   domain.NotificationType
	title string
}{
	domain.ReservationStatusPickedUp:  {domain.NotificationItemPickedUp, "Item picked up"},
	domain.ReservationStatusDelivered: {domain.NotificationItemDelivered, "Item delivered"},
	domain.ReservationStatusReturned:  {domain.NotificationItemReturned, "Item returned"},
	domain.ReservationStatusCancelled: {domain.NotificationReservationCancelled, "Reservation cancelled"},
}

// TransitionWithin is the reservation state machine. Every side effect of a
// status change is written through r so it shares the caller's transaction.
func (s *reservationService) TransitionWithin(ctx context.Context, r *repository.Repos, res *domain.Reservation, status domain.ReservationStatus, memberID *int32, notes string) error {
	if !res.Status.CanTransitionTo(status) {
		return apperr.InvalidState(fmt.Sprintf("cannot change reservation status from %s to %s", res.Status, status))
	}
	previous := res.Status
	res.ApplyTransition(status, memberID, notes, s.now())

	rr, err := r.RentalRequests.GetByID(ctx, res.RentalRequestID)
	if err != nil {
		return fmt.Errorf("failed to load rental request %d: %w", res.RentalRequestID, err)
	}

	if status.ReleasesStock() {
		if err := s.stock.Release(ctx, r.Stock, res.ProductID, res.Quantity); err != nil {
			return err
		}
	}

	switch status {
	case domain.ReservationStatusDelivered:
		ret := &domain.Delivery{
			ReservationID:   res.ID,
			RentalRequestID: res.RentalRequestID,
			OperationType:   domain.OperationTypeReturn,
			Status:          domain.DeliveryStatusScheduled,
			ScheduledDate:   res.ScheduledReturnDate,
			Address:         rr.DeliveryAddress,
		}
		if err := r.Deliveries.Create(ctx, ret); err != nil {
			return err
		}
	case domain.ReservationStatusReturned:
		rr.Status = domain.RentalRequestStatusCompleted
		if err := r.RentalRequests.Update(ctx, rr); err != nil {
			return err
		}
	case domain.ReservationStatusCancelled:
		rr.Status = domain.RentalRequestStatusCancelled
		if err := r.RentalRequests.Update(ctx, rr); err != nil {
			return err
		}
		if _, err := r.Deliveries.CancelOpenByReservation(ctx, res.ID); err != nil {
			return err
		}
	}

	if err := r.Reservations.Update(ctx, res); err != nil {
		return err
	}

	if err := appendEvent(ctx, r.Outbox, "reservation", res.ID, domain.EventReservationStatus, map[string]any{
		"reservation_id": res.ID,
		"from":           previous,
		"to":             status,
	}); err != nil {
		return err
	}

	n := reservationNotifications[status]
	return notifyUser(ctx, r.Notifications, res.CustomerID, n.typ, n.title,
		fmt.Sprintf("Reservation #%d for %s is now %s", res.ID, rr.ProductName, status),
		map[string]string{"reservation_id": idString(res.ID), "status": string(status)})
}

func (s *reservationService) Get(ctx context.Context, caller Caller, id int32) (*domain.Reservation, error) {
	res, err := s.repos.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("reservation")
		}
		return nil, err
	}
	if !caller.IsAdmin() && res.CustomerID != caller.UserID {
		return nil, apperr.Forbidden("you do not have access to this reservation")
	}
	return res, nil
}

func (s *reservationService) GetByRentalRequest(ctx context.Context, caller Caller, rentalRequestID int32) (*domain.Reservation, error) {
	res, err := s.repos.Reservations.GetByRentalRequest(ctx, rentalRequestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("reservation")
		}
		return nil, err
	}
	if !caller.IsAdmin() && res.CustomerID != caller.UserID {
		return nil, apperr.Forbidden("you do not have access to this reservation")
	}
	return res, nil
}

func (s *reservationService) List(ctx context.Context, caller Caller, status string, page, pageSize int32) ([]domain.Reservation, int32, error) {
	var customerID *int32
	if !caller.IsAdmin() {
		customerID = &caller.UserID
	}
	return s.repos.Reservations.List(ctx, status, customerID, page, pageSize)
}

// nextOperation is the physical operation a reservation is waiting for
var nextOperation = map[domain.ReservationStatus]domain.OperationType{
	domain.ReservationStatusReserved:  domain.OperationTypePickup,
	domain.ReservationStatusPickedUp:  domain.OperationTypeDelivery,
	domain.ReservationStatusDelivered: domain.OperationTypeReturn,
}

func (s *reservationService) Document(ctx context.Context, caller Caller, id int32) (*domain.OperationDocument, error) {
	res, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	doc, err := buildDocument(ctx, s.repos, res)
	if err != nil {
		return nil, err
	}
	doc.DocumentType = "reservation"
	doc.Status = string(res.Status)
	if op, ok := nextOperation[res.Status]; ok {
		doc.OperationType = op
		doc.Checklist = domain.OperationChecklists[op]
	}
	return doc, nil
}

// buildDocument collects the customer, product and period shared by every operation document
func buildDocument(ctx context.Context, repos *repository.Repos, res *domain.Reservation) (*domain.OperationDocument, error) {
	customer, err := repos.Users.GetByID(ctx, res.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %d: %w", res.CustomerID, err)
	}
	product, err := repos.Products.GetByID(ctx, res.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", res.ProductID, err)
	}
	rr, err := repos.RentalRequests.GetByID(ctx, res.RentalRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rental request %d: %w", res.RentalRequestID, err)
	}
	return &domain.OperationDocument{
		GeneratedAt:     time.Now().UTC(),
		ReservationID:   res.ID,
		RentalRequestID: res.RentalRequestID,
		Customer: domain.DocumentParty{
			Name:    customer.Name,
			Email:   customer.Email,
			Phone:   customer.Phone,
			Address: customer.Address,
		},
		Product: domain.DocumentItem{
			ID:       product.ID,
			Name:     product.Name,
			Category: product.Category,
			Quantity: res.Quantity,
		},
		RentalPeriod: rr.RentalPeriod,
		Address:      rr.DeliveryAddress,
		Checklist:    []string{},
	}, nil
}

func dateOr(t *time.Time, fallback time.Time) time.Time {
	if t != nil && !t.IsZero() {
		return t.UTC()
	}
	return fallback
}
