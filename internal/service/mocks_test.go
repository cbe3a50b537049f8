package service

import (
	"context"
	"io"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
func (m *MockUserRepo) UpdatePassword(ctx context.Context, id int32, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}
func (m *MockUserRepo) UpdateRefreshToken(ctx context.Context, id int32, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}
func (m *MockUserRepo) UpdateRole(ctx context.Context, id int32, role domain.UserRole) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}
func (m *MockUserRepo) List(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]domain.User), args.Get(1).(int32), args.Error(2)
}
func (m *MockUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockProductRepo
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockProductRepo) GetByID(ctx context.Context, id int32) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}
func (m *MockProductRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Get(1).(int32), args.Error(2)
}
func (m *MockProductRepo) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockProductRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockProductRepo) AdjustStock(ctx context.Context, id int32, delta int32) (int32, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockProductRepo) UpsertPricing(ctx context.Context, pr *domain.ProductPricing) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}
func (m *MockProductRepo) ListPricing(ctx context.Context, productID int32) ([]domain.ProductPricing, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.ProductPricing), args.Error(1)
}
func (m *MockProductRepo) ListLowStock(ctx context.Context, threshold int32) ([]domain.Product, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]domain.Product), args.Error(1)
}

// MockStockRepo
type MockStockRepo struct {
	mock.Mock
}

func (m *MockStockRepo) Reserve(ctx context.Context, productID, quantity int32) (bool, error) {
	args := m.Called(ctx, productID, quantity)
	return args.Bool(0), args.Error(1)
}
func (m *MockStockRepo) Release(ctx context.Context, productID, quantity int32) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

// MockRentalRequestRepo
type MockRentalRequestRepo struct {
	mock.Mock
}

func (m *MockRentalRequestRepo) Create(ctx context.Context, rr *domain.RentalRequest) error {
	args := m.Called(ctx, rr)
	return args.Error(0)
}
func (m *MockRentalRequestRepo) GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}
func (m *MockRentalRequestRepo) Update(ctx context.Context, rr *domain.RentalRequest) error {
	args := m.Called(ctx, rr)
	return args.Error(0)
}
func (m *MockRentalRequestRepo) ListByCustomer(ctx context.Context, customerID int32, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	args := m.Called(ctx, customerID, status, page, pageSize)
	return args.Get(0).([]domain.RentalRequest), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRequestRepo) List(ctx context.Context, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	args := m.Called(ctx, status, page, pageSize)
	return args.Get(0).([]domain.RentalRequest), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRequestRepo) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.RentalRequestStatus]int32, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(map[domain.RentalRequestStatus]int32), args.Error(1)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id int32) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) GetByRentalRequest(ctx context.Context, rentalRequestID int32) (*domain.Reservation, error) {
	args := m.Called(ctx, rentalRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ExistsForRentalRequest(ctx context.Context, rentalRequestID int32) (bool, error) {
	args := m.Called(ctx, rentalRequestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) Update(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) List(ctx context.Context, status string, customerID *int32, page, pageSize int32) ([]domain.Reservation, int32, error) {
	args := m.Called(ctx, status, customerID, page, pageSize)
	return args.Get(0).([]domain.Reservation), args.Get(1).(int32), args.Error(2)
}
func (m *MockReservationRepo) CountActive(ctx context.Context) (int32, error) {
	args := m.Called(ctx)
	return args.Get(0).(int32), args.Error(1)
}

// MockDeliveryRepo
type MockDeliveryRepo struct {
	mock.Mock
}

func (m *MockDeliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDeliveryRepo) GetByID(ctx context.Context, id int32) (*domain.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Delivery), args.Error(1)
}
func (m *MockDeliveryRepo) Update(ctx context.Context, d *domain.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDeliveryRepo) ListByReservation(ctx context.Context, reservationID int32) ([]domain.Delivery, error) {
	args := m.Called(ctx, reservationID)
	return args.Get(0).([]domain.Delivery), args.Error(1)
}
func (m *MockDeliveryRepo) List(ctx context.Context, filter domain.DeliveryFilter) ([]domain.Delivery, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Delivery), args.Get(1).(int32), args.Error(2)
}
func (m *MockDeliveryRepo) CancelOpenByReservation(ctx context.Context, reservationID int32) (int64, error) {
	args := m.Called(ctx, reservationID)
	return args.Get(0).(int64), args.Error(1)
}

// MockInvoiceRepo
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInvoiceRepo) GetByID(ctx context.Context, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) ExistsForRentalRequest(ctx context.Context, rentalRequestID int32) (bool, error) {
	args := m.Called(ctx, rentalRequestID)
	return args.Bool(0), args.Error(1)
}
func (m *MockInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInvoiceRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInvoiceRepo) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Invoice), args.Get(1).(int32), args.Error(2)
}
func (m *MockInvoiceRepo) ListLateFeeCandidates(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) ListWithOpenInstallments(ctx context.Context) ([]domain.Invoice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) Totals(ctx context.Context, from, to time.Time) (repository.InvoiceTotals, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(repository.InvoiceTotals), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, unreadOnly bool, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, unreadOnly, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockNotificationRepo) MarkAllAsRead(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationRepo) CountUnread(ctx context.Context, userID int32) (int32, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockNotificationRepo) Delete(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockNotificationRepo) CountByType(ctx context.Context, userID int32) (map[domain.NotificationType]int32, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(map[domain.NotificationType]int32), args.Error(1)
}
func (m *MockNotificationRepo) CountPendingScheduled(ctx context.Context, userID int32) (int32, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockNotificationRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int32) ([]domain.ScheduledNotification, error) {
	args := m.Called(ctx, now, limit)
	if fn, ok := args.Get(0).(func(context.Context, time.Time, int32) []domain.ScheduledNotification); ok {
		return fn(ctx, now, limit), args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledNotification), args.Error(1)
}
func (m *MockNotificationRepo) MarkEmailSent(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockNotificationRepo) MarkPushSent(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockNotificationRepo) MarkSent(ctx context.Context, id int32, sentAt time.Time) error {
	args := m.Called(ctx, id, sentAt)
	return args.Error(0)
}
func (m *MockNotificationRepo) RecordFailedAttempt(ctx context.Context, id int32, nextAttemptAt time.Time) error {
	args := m.Called(ctx, id, nextAttemptAt)
	return args.Error(0)
}

// MockSettingsRepo
type MockSettingsRepo struct {
	mock.Mock
}

func (m *MockSettingsRepo) Get(ctx context.Context, userID int32) (*domain.Settings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settings), args.Error(1)
}
func (m *MockSettingsRepo) Upsert(ctx context.Context, s *domain.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSettingsRepo) GetAdminBusinessSettings(ctx context.Context) (*domain.BusinessSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BusinessSettings), args.Error(1)
}

// MockWishlistRepo
type MockWishlistRepo struct {
	mock.Mock
}

func (m *MockWishlistRepo) Add(ctx context.Context, userID, productID int32) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}
func (m *MockWishlistRepo) Remove(ctx context.Context, userID, productID int32) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}
func (m *MockWishlistRepo) List(ctx context.Context, userID int32) ([]domain.WishlistItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.WishlistItem), args.Error(1)
}
func (m *MockWishlistRepo) Exists(ctx context.Context, userID, productID int32) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

// MockOutboxRepo
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Append(ctx context.Context, e *domain.OutboxEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockOutboxRepo) ListUnpublished(ctx context.Context, limit int32) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.OutboxEvent), args.Error(1)
}
func (m *MockOutboxRepo) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to, name, subject, body string) error {
	args := m.Called(ctx, to, name, subject, body)
	return args.Error(0)
}

// MockPushSender
type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	args := m.Called(ctx, token, title, body, data)
	return args.Error(0)
}

// MockInvoiceRenderer
type MockInvoiceRenderer struct {
	mock.Mock
}

func (m *MockInvoiceRenderer) Render(w io.Writer, inv *domain.Invoice, customer *domain.User, product *domain.Product) error {
	args := m.Called(w, inv, customer, product)
	return args.Error(0)
}

// mockRepos bundles one mock per repository
type mockRepos struct {
	users          *MockUserRepo
	products       *MockProductRepo
	stock          *MockStockRepo
	rentalRequests *MockRentalRequestRepo
	reservations   *MockReservationRepo
	deliveries     *MockDeliveryRepo
	invoices       *MockInvoiceRepo
	notifications  *MockNotificationRepo
	settings       *MockSettingsRepo
	wishlist       *MockWishlistRepo
	outbox         *MockOutboxRepo
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		users:          new(MockUserRepo),
		products:       new(MockProductRepo),
		stock:          new(MockStockRepo),
		rentalRequests: new(MockRentalRequestRepo),
		reservations:   new(MockReservationRepo),
		deliveries:     new(MockDeliveryRepo),
		invoices:       new(MockInvoiceRepo),
		notifications:  new(MockNotificationRepo),
		settings:       new(MockSettingsRepo),
		wishlist:       new(MockWishlistRepo),
		outbox:         new(MockOutboxRepo),
	}
}

func (m *mockRepos) repos() *repository.Repos {
	return &repository.Repos{
		Users:          m.users,
		Products:       m.products,
		Stock:          m.stock,
		RentalRequests: m.rentalRequests,
		Reservations:   m.reservations,
		Deliveries:     m.deliveries,
		Invoices:       m.invoices,
		Notifications:  m.notifications,
		Settings:       m.settings,
		Wishlist:       m.wishlist,
		Outbox:         m.outbox,
	}
}

// fakeTransactor runs fn against the mock repositories and records the outcome
type fakeTransactor struct {
	repos     *repository.Repos
	commits   int
	rollbacks int
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, r *repository.Repos) error) error {
	if err := fn(ctx, f.repos); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
