package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestWishlistService(t *testing.T) {
	ctx := context.Background()
	wishlistRepo := new(MockWishlistRepo)
	productRepo := new(MockProductRepo)
	svc := NewWishlistService(wishlistRepo, productRepo)

	productRepo.On("GetByID", ctx, int32(5)).Return(&domain.Product{ID: 5}, nil)
	productRepo.On("GetByID", ctx, int32(6)).Return(nil, sql.ErrNoRows)
	wishlistRepo.On("Add", ctx, int32(7), int32(5)).Return(nil).Once()
	wishlistRepo.On("Add", ctx, int32(7), int32(5)).Return(repository.ErrDuplicate).Once()
	wishlistRepo.On("Remove", ctx, int32(7), int32(5)).Return(true, nil).Once()
	wishlistRepo.On("Remove", ctx, int32(7), int32(5)).Return(false, nil).Once()

	assert.NoError(t, svc.Add(ctx, 7, 5))

	err := svc.Add(ctx, 7, 5)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "already in wishlist")

	err = svc.Add(ctx, 7, 6)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	assert.NoError(t, svc.Remove(ctx, 7, 5))
	err = svc.Remove(ctx, 7, 5)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}
