package postgres

import (
	"context"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/lib/pq"
)

type settingsRepository struct {
	db DBTX
}

func NewSettingsRepository(db DBTX) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, userID int32) (*domain.Settings, error) {
	query := `SELECT user_id, payment_reminder_days, rental_reminder_days, return_reminder_days, email_enabled, push_enabled,
	          auto_approve_requests, min_rental_days, max_rental_days, updated_at FROM settings WHERE user_id = $1`
	s := &domain.Settings{}
	var payment, rental, ret pq.Int32Array
	prefs := &s.NotificationPreferences
	biz := &s.BusinessSettings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &payment, &rental, &ret, &prefs.EmailEnabled, &prefs.PushEnabled,
		&biz.AutoApproveRequests, &biz.MinRentalDays, &biz.MaxRentalDays, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	prefs.PaymentReminderDays = []int32(payment)
	prefs.RentalReminderDays = []int32(rental)
	prefs.ReturnReminderDays = []int32(ret)
	return s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *domain.Settings) error {
	query := `INSERT INTO settings (user_id, payment_reminder_days, rental_reminder_days, return_reminder_days, email_enabled, push_enabled,
	          auto_approve_requests, min_rental_days, max_rental_days, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (user_id) DO UPDATE SET
	            payment_reminder_days = EXCLUDED.payment_reminder_days,
	            rental_reminder_days = EXCLUDED.rental_reminder_days,
	            return_reminder_days = EXCLUDED.return_reminder_days,
	            email_enabled = EXCLUDED.email_enabled,
	            push_enabled = EXCLUDED.push_enabled,
	            auto_approve_requests = EXCLUDED.auto_approve_requests,
	            min_rental_days = EXCLUDED.min_rental_days,
	            max_rental_days = EXCLUDED.max_rental_days,
	            updated_at = EXCLUDED.updated_at`
	s.UpdatedAt = time.Now().UTC()
	prefs := s.NotificationPreferences
	biz := s.BusinessSettings

	logger.DatabaseCall("UPSERT", "settings", "userID", s.UserID)
	_, err := r.db.ExecContext(ctx, query, s.UserID,
		pq.Array(prefs.PaymentReminderDays), pq.Array(prefs.RentalReminderDays), pq.Array(prefs.ReturnReminderDays),
		prefs.EmailEnabled, prefs.PushEnabled, biz.AutoApproveRequests, biz.MinRentalDays, biz.MaxRentalDays, s.UpdatedAt)
	logger.DatabaseResult("UPSERT", 1, err, "userID", s.UserID)
	return err
}

func (r *settingsRepository) GetAdminBusinessSettings(ctx context.Context) (*domain.BusinessSettings, error) {
	query := `SELECT s.auto_approve_requests, s.min_rental_days, s.max_rental_days
	          FROM settings s JOIN users u ON u.id = s.user_id
	          WHERE u.role = 'admin' ORDER BY s.updated_at DESC LIMIT 1`
	b := &domain.BusinessSettings{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&b.AutoApproveRequests, &b.MinRentalDays, &b.MaxRentalDays); err != nil {
		return nil, err
	}
	return b, nil
}
