package repository

import (
	"context"
	"errors"
	"time"

	"rental-marketplace-backend/internal/domain"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
var ErrDuplicate = errors.New("duplicate record")

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id int32, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, id int32, token string) error
	UpdateRole(ctx context.Context, id int32, role domain.UserRole) error
	List(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error)
	ListAdmins(ctx context.Context) ([]domain.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int32) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int32, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int32) error
	AdjustStock(ctx context.Context, id int32, delta int32) (int32, error)
	UpsertPricing(ctx context.Context, pr *domain.ProductPricing) error
	ListPricing(ctx context.Context, productID int32) ([]domain.ProductPricing, error)
	ListLowStock(ctx context.Context, threshold int32) ([]domain.Product, error)
}

// StockRepository is the only writer of products.quantity outside the admin stock patch
type StockRepository interface {
	// Reserve decrements stock only when enough units are available; ok is false otherwise
	Reserve(ctx context.Context, productID, quantity int32) (ok bool, err error)
	Release(ctx context.Context, productID, quantity int32) error
}

type RentalRequestRepository interface {
	Create(ctx context.Context, rr *domain.RentalRequest) error
	GetByID(ctx context.Context, id int32) (*domain.RentalRequest, error)
	Update(ctx context.Context, rr *domain.RentalRequest) error
	ListByCustomer(ctx context.Context, customerID int32, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	List(ctx context.Context, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	CountByStatus(ctx context.Context, from, to time.Time) (map[domain.RentalRequestStatus]int32, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int32) (*domain.Reservation, error)
	GetByRentalRequest(ctx context.Context, rentalRequestID int32) (*domain.Reservation, error)
	ExistsForRentalRequest(ctx context.Context, rentalRequestID int32) (bool, error)
	Update(ctx context.Context, r *domain.Reservation) error
	List(ctx context.Context, status string, customerID *int32, page, pageSize int32) ([]domain.Reservation, int32, error)
	CountActive(ctx context.Context) (int32, error)
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	GetByID(ctx context.Context, id int32) (*domain.Delivery, error)
	Update(ctx context.Context, d *domain.Delivery) error
	ListByReservation(ctx context.Context, reservationID int32) ([]domain.Delivery, error)
	List(ctx context.Context, filter domain.DeliveryFilter) ([]domain.Delivery, int32, error)
	CancelOpenByReservation(ctx context.Context, reservationID int32) (int64, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id int32) (*domain.Invoice, error)
	ExistsForRentalRequest(ctx context.Context, rentalRequestID int32) (bool, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	Delete(ctx context.Context, id int32) error
	List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int32, error)
	ListLateFeeCandidates(ctx context.Context, now time.Time) ([]domain.Invoice, error)
	ListWithOpenInstallments(ctx context.Context) ([]domain.Invoice, error)
	Totals(ctx context.Context, from, to time.Time) (InvoiceTotals, error)
}

// InvoiceTotals aggregates invoice amounts for reports
type InvoiceTotals struct {
	RevenueCollectedCents int64
	OutstandingCents      int64
	LateFeesCents         int64
	OverdueCount          int32
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID int32, unreadOnly bool, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
	MarkAllAsRead(ctx context.Context, userID int32) (int64, error)
	CountUnread(ctx context.Context, userID int32) (int32, error)
	Delete(ctx context.Context, id, userID int32) error
	CountByType(ctx context.Context, userID int32) (map[domain.NotificationType]int32, error)
	CountPendingScheduled(ctx context.Context, userID int32) (int32, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int32) ([]domain.ScheduledNotification, error)
	MarkEmailSent(ctx context.Context, id int32) error
	MarkPushSent(ctx context.Context, id int32) error
	MarkSent(ctx context.Context, id int32, sentAt time.Time) error
	// RecordFailedAttempt bumps the attempt counter and holds the row back until nextAttemptAt
	RecordFailedAttempt(ctx context.Context, id int32, nextAttemptAt time.Time) error
}

type SettingsRepository interface {
	// Get returns sql.ErrNoRows when the user has no stored settings
	Get(ctx context.Context, userID int32) (*domain.Settings, error)
	Upsert(ctx context.Context, s *domain.Settings) error
	// GetAdminBusinessSettings returns the most recently updated admin business settings
	GetAdminBusinessSettings(ctx context.Context) (*domain.BusinessSettings, error)
}

type WishlistRepository interface {
	Add(ctx context.Context, userID, productID int32) error
	Remove(ctx context.Context, userID, productID int32) (bool, error)
	List(ctx context.Context, userID int32) ([]domain.WishlistItem, error)
	Exists(ctx context.Context, userID, productID int32) (bool, error)
}

type OutboxRepository interface {
	Append(ctx context.Context, e *domain.OutboxEvent) error
	ListUnpublished(ctx context.Context, limit int32) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
}

// Repos bundles repositories bound to the same connection or transaction
type Repos struct {
	Users          UserRepository
	Products       ProductRepository
	Stock          StockRepository
	RentalRequests RentalRequestRepository
	Reservations   ReservationRepository
	Deliveries     DeliveryRepository
	Invoices       InvoiceRepository
	Notifications  NotificationRepository
	Settings       SettingsRepository
	Wishlist       WishlistRepository
	Outbox         OutboxRepository
}

// Transactor runs fn with repositories bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error
}
