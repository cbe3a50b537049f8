package service

import (
	"context"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type stockService struct{}

func NewStockService() StockService {
	return &stockService{}
}

func (s *stockService) Reserve(ctx context.Context, stock repository.StockRepository, productID, quantity int32) error {
	if quantity < 1 {
		return apperr.Validation("quantity must be at least 1")
	}
	ok, err := stock.Reserve(ctx, productID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		logger.InfoContext(ctx, "Stock reservation refused", "productID", productID, "quantity", quantity)
		return apperr.Validation("insufficient stock")
	}
	return nil
}

func (s *stockService) Release(ctx context.Context, stock repository.StockRepository, productID, quantity int32) error {
	if quantity < 1 {
		return nil
	}
	return stock.Release(ctx, productID, quantity)
}
