package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDeliveryService(m *mockRepos, now time.Time) *deliveryService {
	reservations, tx := newTestReservationService(m, nil, now)
	svc := NewDeliveryService(tx.repos, tx, reservations).(*deliveryService)
	svc.now = fixedClock(now)
	return svc
}

func TestDeliveryService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	staff := int32(4)

	t.Run("Completing a pickup advances the reservation", func(t *testing.T) {
		m := newMockRepos()
		svc := newTestDeliveryService(m, now)
		d := &domain.Delivery{ID: 31, ReservationID: 21, RentalRequestID: 11, OperationType: domain.OperationTypePickup, Status: domain.DeliveryStatusInProgress}
		res := &domain.Reservation{ID: 21, RentalRequestID: 11, CustomerID: 7, ProductID: 5, Quantity: 2, Status: domain.ReservationStatusReserved, IsActive: true}

		m.deliveries.On("GetByID", ctx, int32(31)).Return(d, nil)
		m.deliveries.On("Update", ctx, d).Return(nil)
		m.outbox.On("Append", ctx, mock.Anything).Return(nil)
		m.reservations.On("GetByID", ctx, int32(21)).Return(res, nil)
		m.rentalRequests.On("GetByID", ctx, int32(11)).Return(approvedRequest(), nil)
		m.reservations.On("Update", ctx, res).Return(nil)
		m.notifications.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationItemPickedUp
		})).Return(nil)

		updated, err := svc.UpdateStatus(ctx, 31, domain.DeliveryStatusCompleted, &staff, "loaded")
		require.NoError(t, err)
		assert.Equal(t, domain.DeliveryStatusCompleted, updated.Status)
		assert.Equal(t, now, *updated.CompletedAt)
		assert.Equal(t, &staff, updated.AssignedTo)
		assert.Equal(t, domain.ReservationStatusPickedUp, res.Status)
		assert.Equal(t, &staff, res.AssignedPickupMember)
		// delivery and reservation each emit their own event
		m.outbox.AssertNumberOfCalls(t, "Append", 2)
		m.stock.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything)
		m.stock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reservation already past the operation", func(t *testing.T) {
		m := newMockRepos()
		svc := newTestDeliveryService(m, now)
		d := &domain.Delivery{ID: 31, ReservationID: 21, OperationType: domain.OperationTypePickup, Status: domain.DeliveryStatusInProgress}
		res := &domain.Reservation{ID: 21, CustomerID: 7, Status: domain.ReservationStatusDelivered}

		m.deliveries.On("GetByID", ctx, int32(31)).Return(d, nil)
		m.deliveries.On("Update", ctx, d).Return(nil)
		m.outbox.On("Append", ctx, mock.Anything).Return(nil)
		m.reservations.On("GetByID", ctx, int32(21)).Return(res, nil)
		m.notifications.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationDeliveryCompleted
		})).Return(nil)

		_, err := svc.UpdateStatus(ctx, 31, domain.DeliveryStatusCompleted, nil, "")
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationStatusDelivered, res.Status)
		m.reservations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Must start before completing", func(t *testing.T) {
		m := newMockRepos()
		svc := newTestDeliveryService(m, now)
		m.deliveries.On("GetByID", ctx, int32(31)).Return(&domain.Delivery{ID: 31, Status: domain.DeliveryStatusScheduled}, nil)

		_, err := svc.UpdateStatus(ctx, 31, domain.DeliveryStatusCompleted, nil, "")
		assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
		m.deliveries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Starting stamps the start time", func(t *testing.T) {
		m := newMockRepos()
		svc := newTestDeliveryService(m, now)
		d := &domain.Delivery{ID: 31, ReservationID: 21, Status: domain.DeliveryStatusScheduled}
		m.deliveries.On("GetByID", ctx, int32(31)).Return(d, nil)
		m.deliveries.On("Update", ctx, d).Return(nil)
		m.outbox.On("Append", ctx, mock.Anything).Return(nil)

		updated, err := svc.UpdateStatus(ctx, 31, domain.DeliveryStatusInProgress, nil, "")
		require.NoError(t, err)
		assert.Equal(t, now, *updated.StartedAt)
		m.reservations.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestDeliveryService_Document(t *testing.T) {
	ctx := context.Background()
	m := newMockRepos()
	svc := newTestDeliveryService(m, time.Now().UTC())
	scheduled := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	m.deliveries.On("GetByID", ctx, int32(31)).Return(&domain.Delivery{
		ID: 31, ReservationID: 21, OperationType: domain.OperationTypeReturn,
		Status: domain.DeliveryStatusScheduled, ScheduledDate: scheduled, Address: "2 Side St",
	}, nil)
	m.reservations.On("GetByID", ctx, int32(21)).Return(&domain.Reservation{ID: 21, RentalRequestID: 11, CustomerID: 7, ProductID: 5, Quantity: 2}, nil)
	m.users.On("GetByID", ctx, int32(7)).Return(&domain.User{ID: 7, Name: "Cust", Email: "c@test.com"}, nil)
	m.products.On("GetByID", ctx, int32(5)).Return(&domain.Product{ID: 5, Name: "Projector", Category: "av"}, nil)
	m.rentalRequests.On("GetByID", ctx, int32(11)).Return(approvedRequest(), nil)

	doc, err := svc.Document(ctx, 31)
	require.NoError(t, err)
	assert.Equal(t, "return_operation", doc.DocumentType)
	assert.Equal(t, "2 Side St", doc.Address)
	assert.Equal(t, scheduled, *doc.ScheduledDate)
	assert.Equal(t, "Cust", doc.Customer.Name)
	assert.Equal(t, int32(2), doc.Product.Quantity)
	assert.Equal(t, domain.OperationChecklists[domain.OperationTypeReturn], doc.Checklist)
}
