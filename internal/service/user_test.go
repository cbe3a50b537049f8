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
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_SetRole(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepo)
	svc := NewUserService(repo)

	repo.On("UpdateRole", ctx, int32(9), domain.UserRoleAdmin).Return(nil)
	repo.On("UpdateRole", ctx, int32(10), domain.UserRoleAdmin).Return(sql.ErrNoRows)

	assert.NoError(t, svc.SetRole(ctx, 1, 9, domain.UserRoleAdmin))
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(svc.SetRole(ctx, 1, 10, domain.UserRoleAdmin)))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(svc.SetRole(ctx, 1, 1, domain.UserRoleCustomer)))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(svc.SetRole(ctx, 1, 9, domain.UserRole("owner"))))
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := new(MockUserRepo)
	svc := NewUserService(repo)

	repo.On("GetByID", ctx, int32(7)).Return(&domain.User{ID: 7, PasswordHash: string(hash)}, nil)
	repo.On("UpdatePassword", ctx, int32(7), mock.AnythingOfType("string")).Return(nil)

	err = svc.ChangePassword(ctx, 7, "wrong", "new-password")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	err = svc.ChangePassword(ctx, 7, "old-password", "short")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	require.NoError(t, svc.ChangePassword(ctx, 7, "old-password", "new-password"))
	repo.AssertNumberOfCalls(t, "UpdatePassword", 1)
}
