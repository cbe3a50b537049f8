package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ProductRepository
	repository.StockRepository
	repository.RentalRequestRepository
	repository.ReservationRepository
	repository.DeliveryRepository
	repository.InvoiceRepository
	repository.NotificationRepository
	repository.SettingsRepository
	repository.WishlistRepository
	repository.OutboxRepository
}

func NewStore(db *sql.DB) *Store {
	r := newRepos(db)
	return &Store{
		db:                      db,
		UserRepository:          r.Users,
		ProductRepository:       r.Products,
		StockRepository:         r.Stock,
		RentalRequestRepository: r.RentalRequests,
		ReservationRepository:   r.Reservations,
		DeliveryRepository:      r.Deliveries,
		InvoiceRepository:       r.Invoices,
		NotificationRepository:  r.Notifications,
		SettingsRepository:      r.Settings,
		WishlistRepository:      r.Wishlist,
		OutboxRepository:        r.Outbox,
	}
}

func newRepos(db DBTX) *repository.Repos {
	return &repository.Repos{
		Users:          NewUserRepository(db),
		Products:       NewProductRepository(db),
		Stock:          NewStockRepository(db),
		RentalRequests: NewRentalRequestRepository(db),
		Reservations:   NewReservationRepository(db),
		Deliveries:     NewDeliveryRepository(db),
		Invoices:       NewInvoiceRepository(db),
		Notifications:  NewNotificationRepository(db),
		Settings:       NewSettingsRepository(db),
		Wishlist:       NewWishlistRepository(db),
		Outbox:         NewOutboxRepository(db),
	}
}

// Repos returns the non-transactional repository bundle
func (s *Store) Repos() *repository.Repos {
	return &repository.Repos{
		Users:          s.UserRepository,
		Products:       s.ProductRepository,
		Stock:          s.StockRepository,
		RentalRequests: s.RentalRequestRepository,
		Reservations:   s.ReservationRepository,
		Deliveries:     s.DeliveryRepository,
		Invoices:       s.InvoiceRepository,
		Notifications:  s.NotificationRepository,
		Settings:       s.SettingsRepository,
		Wishlist:       s.WishlistRepository,
		Outbox:         s.OutboxRepository,
	}
}

// DB exposes the pool for jobs that run their own queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithinTx implements repository.Transactor
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r *repository.Repos) error) error {
	return NewTransactor(s.db).WithinTx(ctx, fn)
}

type transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) repository.Transactor {
	return &transactor{db: db}
}

func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, r *repository.Repos) error) error {
	logger.DatabaseCall("BEGIN", "")
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		logger.DatabaseResult("ROLLBACK", 0, nil)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.DatabaseResult("COMMIT", 0, nil)
	return nil
}

// mapUniqueViolation turns a PostgreSQL unique constraint violation into repository.ErrDuplicate
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

func pageOffset(page, pageSize int32) (int32, int32) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
