package service

import (
	"context"
	"io"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

// Caller identifies the authenticated user on whose behalf a service call runs
type Caller struct {
	UserID int32
	Role   domain.UserRole
}

func (c Caller) IsAdmin() bool { return c.Role == domain.UserRoleAdmin }

// AuthResult is returned by every operation that issues a token pair
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Phone    string
}

type ProfileUpdate struct {
	Name      *string
	Address   *string
	Phone     *string
	AvatarURL *string
	PushToken *string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	// Logout clears the stored refresh token and revokes the access token until ttl elapses
	Logout(ctx context.Context, userID int32, accessJTI string, ttl time.Duration) error
}

type UserService interface {
	Me(ctx context.Context, userID int32) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int32, in ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int32, currentPassword, newPassword string) error
	ListUsers(ctx context.Context, page, pageSize int32) ([]domain.User, int32, error)
	SetRole(ctx context.Context, adminID, userID int32, role domain.UserRole) error
}

// ImageUpload describes where a client should PUT a product image
type ImageUpload struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ProductService interface {
	Create(ctx context.Context, p *domain.Product, pricing []domain.ProductPricing) (*domain.Product, error)
	Get(ctx context.Context, id int32) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int32, error)
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int32) error
	UpdateStock(ctx context.Context, id, delta int32) (*domain.Product, error)
	SetPricing(ctx context.Context, productID int32, unit domain.PricingUnit, priceCents int64, minDuration int32) (*domain.Product, error)
	UploadImage(ctx context.Context, productID int32, filename, contentType string) (*ImageUpload, error)
}

// StockService is the single path through which rentals take and return units.
// Both operations run on the repositories passed in, so they join the caller's transaction.
type StockService interface {
	Reserve(ctx context.Context, stock repository.StockRepository, productID, quantity int32) error
	Release(ctx context.Context, stock repository.StockRepository, productID, quantity int32) error
}

type CreateRentalRequestInput struct {
	ProductID       int32
	Quantity        int32
	StartDate       time.Time
	EndDate         time.Time
	DurationType    string
	DurationValue   int32
	DeliveryAddress string
}

type RentalRequestService interface {
	Create(ctx context.Context, customerID int32, in CreateRentalRequestInput) (*domain.RentalRequest, error)
	Approve(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error)
	Reject(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error)
	Cancel(ctx context.Context, id, customerID int32) (*domain.RentalRequest, error)
	ConfirmOrder(ctx context.Context, id int32) (*domain.RentalRequest, error)
	UpdatePaymentStatus(ctx context.Context, id int32, status domain.PaymentStatus, amountCents int64) (*domain.RentalRequest, error)
	Get(ctx context.Context, caller Caller, id int32) (*domain.RentalRequest, error)
	ListMine(ctx context.Context, customerID int32, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
	ListAll(ctx context.Context, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error)
}

type ReservationService interface {
	Create(ctx context.Context, rentalRequestID, adminID int32, schedule domain.ReservationSchedule) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int32, status domain.ReservationStatus, memberID *int32, notes string) (*domain.Reservation, error)
	// TransitionWithin applies a status change using repositories already bound to a transaction
	TransitionWithin(ctx context.Context, r *repository.Repos, res *domain.Reservation, status domain.ReservationStatus, memberID *int32, notes string) error
	Get(ctx context.Context, caller Caller, id int32) (*domain.Reservation, error)
	GetByRentalRequest(ctx context.Context, caller Caller, rentalRequestID int32) (*domain.Reservation, error)
	List(ctx context.Context, caller Caller, status string, page, pageSize int32) ([]domain.Reservation, int32, error)
	Document(ctx context.Context, caller Caller, id int32) (*domain.OperationDocument, error)
}

type DeliveryService interface {
	UpdateStatus(ctx context.Context, id int32, status domain.DeliveryStatus, staffID *int32, notes string) (*domain.Delivery, error)
	Assign(ctx context.Context, id, staffID int32) (*domain.Delivery, error)
	Reschedule(ctx context.Context, id int32, date time.Time) (*domain.Delivery, error)
	Get(ctx context.Context, id int32) (*domain.Delivery, error)
	ListByReservation(ctx context.Context, caller Caller, reservationID int32) ([]domain.Delivery, error)
	List(ctx context.Context, filter domain.DeliveryFilter) ([]domain.Delivery, int32, error)
	Document(ctx context.Context, id int32) (*domain.OperationDocument, error)
}

type CreateInvoiceInput struct {
	RentalRequestID      int32
	PaymentMethod        string
	UpfrontPaymentCents  int64
	SecurityDepositCents *int64
	DueDate              *time.Time
	Notes                string
}

type InvoiceService interface {
	Create(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, caller Caller, id int32) (*domain.Invoice, error)
	List(ctx context.Context, caller Caller, status domain.InvoiceStatus, customerID *int32, page, pageSize int32) ([]domain.Invoice, int32, error)
	ProcessPayment(ctx context.Context, caller Caller, id int32, amountCents int64, method string) (*domain.Invoice, error)
	Send(ctx context.Context, id int32) (*domain.Invoice, error)
	Cancel(ctx context.Context, id int32) (*domain.Invoice, error)
	Delete(ctx context.Context, id int32) error
	UpdateLateFees(ctx context.Context, now time.Time) (int, error)
	// RemindInstallments notifies customers of unpaid installments falling due within a day of now
	RemindInstallments(ctx context.Context, now time.Time) (int, error)
	// Document renders the invoice PDF into w and returns the invoice it describes
	Document(ctx context.Context, caller Caller, id int32, w io.Writer) (*domain.Invoice, error)
}

type NotificationService interface {
	List(ctx context.Context, userID int32, unreadOnly bool, page, limit int32) ([]domain.Notification, int32, error)
	MarkRead(ctx context.Context, userID, id int32) error
	MarkAllRead(ctx context.Context, userID int32) (int64, error)
	UnreadCount(ctx context.Context, userID int32) (int32, error)
	Delete(ctx context.Context, userID, id int32) error
	Stats(ctx context.Context, userID int32) (*domain.NotificationStats, error)
	ProcessScheduled(ctx context.Context, now time.Time) (int, error)
}

type SettingsService interface {
	Get(ctx context.Context, userID int32) (*domain.Settings, error)
	UpdateNotificationPreferences(ctx context.Context, userID int32, prefs domain.NotificationPreferences) (*domain.Settings, error)
	UpdateBusinessSettings(ctx context.Context, caller Caller, biz domain.BusinessSettings) (*domain.Settings, error)
	Reset(ctx context.Context, userID int32) (*domain.Settings, error)
}

type WishlistService interface {
	Add(ctx context.Context, userID, productID int32) error
	Remove(ctx context.Context, userID, productID int32) error
	List(ctx context.Context, userID int32) ([]domain.WishlistItem, error)
	Contains(ctx context.Context, userID, productID int32) (bool, error)
}

type ReportService interface {
	Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error)
}

// InvoiceRenderer writes the printable form of an invoice
type InvoiceRenderer interface {
	Render(w io.Writer, inv *domain.Invoice, customer *domain.User, product *domain.Product) error
}

// EmailSender delivers one plain-text email
type EmailSender interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

// PushSender delivers one push notification to a device token
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}
