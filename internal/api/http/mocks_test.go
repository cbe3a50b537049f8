package http

import (
	"context"
	"io"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, userID int32, accessJTI string, ttl time.Duration) error {
	args := m.Called(ctx, userID, accessJTI, ttl)
	return args.Error(0)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, p *domain.Product, pricing []domain.ProductPricing) (*domain.Product, error) {
	args := m.Called(ctx, p, pricing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id int32) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Get(1).(int32), args.Error(2)
}

func (m *MockProductService) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id int32) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductService) UpdateStock(ctx context.Context, id, delta int32) (*domain.Product, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) SetPricing(ctx context.Context, productID int32, unit domain.PricingUnit, priceCents int64, minDuration int32) (*domain.Product, error) {
	args := m.Called(ctx, productID, unit, priceCents, minDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductService) UploadImage(ctx context.Context, productID int32, filename, contentType string) (*service.ImageUpload, error) {
	args := m.Called(ctx, productID, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImageUpload), args.Error(1)
}

type MockRentalRequestService struct {
	mock.Mock
}

func (m *MockRentalRequestService) Create(ctx context.Context, customerID int32, in service.CreateRentalRequestInput) (*domain.RentalRequest, error) {
	args := m.Called(ctx, customerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) Approve(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, adminID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) Reject(ctx context.Context, id, adminID int32, notes string) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, adminID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) Cancel(ctx context.Context, id, customerID int32) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) ConfirmOrder(ctx context.Context, id int32) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) UpdatePaymentStatus(ctx context.Context, id int32, status domain.PaymentStatus, amountCents int64) (*domain.RentalRequest, error) {
	args := m.Called(ctx, id, status, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) Get(ctx context.Context, caller service.Caller, id int32) (*domain.RentalRequest, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalRequest), args.Error(1)
}

func (m *MockRentalRequestService) ListMine(ctx context.Context, customerID int32, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	args := m.Called(ctx, customerID, status, page, pageSize)
	return args.Get(0).([]domain.RentalRequest), args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalRequestService) ListAll(ctx context.Context, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	args := m.Called(ctx, status, page, pageSize)
	return args.Get(0).([]domain.RentalRequest), args.Get(1).(int32), args.Error(2)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Create(ctx context.Context, in service.CreateInvoiceInput) (*domain.Invoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, caller service.Caller, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, caller service.Caller, status domain.InvoiceStatus, customerID *int32, page, pageSize int32) ([]domain.Invoice, int32, error) {
	args := m.Called(ctx, caller, status, customerID, page, pageSize)
	return args.Get(0).([]domain.Invoice), args.Get(1).(int32), args.Error(2)
}

func (m *MockInvoiceService) ProcessPayment(ctx context.Context, caller service.Caller, id int32, amountCents int64, method string) (*domain.Invoice, error) {
	args := m.Called(ctx, caller, id, amountCents, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Send(ctx context.Context, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Cancel(ctx context.Context, id int32) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
