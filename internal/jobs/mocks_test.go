package jobs

import (
	"context"
	"io"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID int32, unreadOnly bool, page, limit int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, unreadOnly, page, limit)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, id int32) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID int32) (int32, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, userID, id int32) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockNotificationService) Stats(ctx context.Context, userID int32) (*domain.NotificationStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationStats), args.Error(1)
}

func (m *MockNotificationService) ProcessScheduled(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, in service.CreateInvoiceInput) (*domain.Invoice, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, caller service.Caller, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, caller service.Caller, status domain.InvoiceStatus, customerID *int32, page, pageSize int32) ([]domain.Invoice, int32, error) {
	args := m.Called(ctx, caller, status, customerID, page, pageSize)
	return args.Get(0).([]domain.Invoice), args.Get(1).(int32), args.Error(2)
}

func (m *MockInvoiceService) ProcessPayment(ctx context.Context, caller service.Caller, id int32, amountCents int64, method string) (*domain.Invoice, error) {
	args := m.Called(ctx, caller, id, amountCents, method)
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Send(ctx context.Context, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Cancel(ctx context.Context, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInvoiceService) UpdateLateFees(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceService) RemindInstallments(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceService) Document(ctx context.Context, caller service.Caller, id int32, w io.Writer) (*domain.Invoice, error) {
	args := m.Called(ctx, caller, id, w)
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Append(ctx context.Context, e *domain.OutboxEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockOutboxRepo) ListUnpublished(ctx context.Context, limit int32) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepo) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
