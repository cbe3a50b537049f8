package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettingsService_GetCreatesDefaults(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSettingsRepo)
	svc := NewSettingsService(repo)

	repo.On("Get", ctx, int32(7)).Return(nil, sql.ErrNoRows)
	repo.On("Upsert", ctx, mock.AnythingOfType("*domain.Settings")).Return(nil)

	settings, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(7), settings)
	repo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestSettingsService_UpdateNotificationPreferences(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSettingsRepo)
	svc := NewSettingsService(repo)

	repo.On("Get", ctx, int32(7)).Return(domain.DefaultSettings(7), nil)
	repo.On("Upsert", ctx, mock.Anything).Return(nil)

	settings, err := svc.UpdateNotificationPreferences(ctx, 7, domain.NotificationPreferences{
		PaymentReminderDays: []int32{1, 3, 3, 0, -2, 14},
		EmailEnabled:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, []int32{14, 3, 1}, settings.NotificationPreferences.PaymentReminderDays)
	assert.Empty(t, settings.NotificationPreferences.RentalReminderDays)
}

func TestSettingsService_UpdateBusinessSettings(t *testing.T) {
	ctx := context.Background()
	admin := Caller{UserID: 1, Role: domain.UserRoleAdmin}

	tests := []struct {
		name       string
		caller     Caller
		biz        domain.BusinessSettings
		wantStatus int
	}{
		{"customer", Caller{UserID: 7, Role: domain.UserRoleCustomer}, domain.BusinessSettings{MinRentalDays: 1, MaxRentalDays: 10}, http.StatusForbidden},
		{"min below one", admin, domain.BusinessSettings{MinRentalDays: 0, MaxRentalDays: 10}, http.StatusBadRequest},
		{"min above max", admin, domain.BusinessSettings{MinRentalDays: 20, MaxRentalDays: 10}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSettingsRepo)
			_, err := NewSettingsService(repo).UpdateBusinessSettings(ctx, tt.caller, tt.biz)
			assert.Equal(t, tt.wantStatus, apperr.StatusOf(err))
			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}

	t.Run("Admin", func(t *testing.T) {
		repo := new(MockSettingsRepo)
		repo.On("Get", ctx, int32(1)).Return(domain.DefaultSettings(1), nil)
		repo.On("Upsert", ctx, mock.Anything).Return(nil)

		settings, err := NewSettingsService(repo).UpdateBusinessSettings(ctx, admin, domain.BusinessSettings{AutoApproveRequests: true, MinRentalDays: 2, MaxRentalDays: 30})
		require.NoError(t, err)
		assert.True(t, settings.BusinessSettings.AutoApproveRequests)
	})
}
