package service

import (
	"context"
	"database/sql"
	"errors"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) WishlistService {
	return &wishlistService{wishlistRepo: wishlistRepo, productRepo: productRepo}
}

func (s *wishlistService) Add(ctx context.Context, userID, productID int32) error {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("product")
		}
		return err
	}
	if err := s.wishlistRepo.Add(ctx, userID, productID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Validation("product is already in wishlist")
		}
		return err
	}
	return nil
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID int32) error {
	removed, err := s.wishlistRepo.Remove(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("wishlist item")
	}
	return nil
}

func (s *wishlistService) List(ctx context.Context, userID int32) ([]domain.WishlistItem, error) {
	return s.wishlistRepo.List(ctx, userID)
}

func (s *wishlistService) Contains(ctx context.Context, userID, productID int32) (bool, error) {
	return s.wishlistRepo.Exists(ctx, userID, productID)
}
