package service

import (
	"context"
	"database/sql"
	"errors"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

type settingsService struct {
	settingsRepo repository.SettingsRepository
}

func NewSettingsService(settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{settingsRepo: settingsRepo}
}

// Get returns the stored settings, creating the defaults on first access
func (s *settingsService) Get(ctx context.Context, userID int32) (*domain.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	settings = domain.DefaultSettings(userID)
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) UpdateNotificationPreferences(ctx context.Context, userID int32, prefs domain.NotificationPreferences) (*domain.Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs.PaymentReminderDays = domain.NormalizeReminderDays(prefs.PaymentReminderDays)
	prefs.RentalReminderDays = domain.NormalizeReminderDays(prefs.RentalReminderDays)
	prefs.ReturnReminderDays = domain.NormalizeReminderDays(prefs.ReturnReminderDays)
	settings.NotificationPreferences = prefs
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) UpdateBusinessSettings(ctx context.Context, caller Caller, biz domain.BusinessSettings) (*domain.Settings, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("only admins can change business settings")
	}
	if biz.MinRentalDays < 1 {
		return nil, apperr.Validation("min rental days must be at least 1")
	}
	if biz.MinRentalDays > biz.MaxRentalDays {
		return nil, apperr.Validation("min rental days cannot exceed max rental days")
	}
	settings, err := s.Get(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	settings.BusinessSettings = biz
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *settingsService) Reset(ctx context.Context, userID int32) (*domain.Settings, error) {
	settings := domain.DefaultSettings(userID)
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// preferencesOrDefault reads stored preferences without creating a row
func preferencesOrDefault(ctx context.Context, repo repository.SettingsRepository, userID int32) (domain.NotificationPreferences, error) {
	settings, err := repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultSettings(userID).NotificationPreferences, nil
		}
		return domain.NotificationPreferences{}, err
	}
	return settings.NotificationPreferences, nil
}
