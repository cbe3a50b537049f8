package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
	"rental-marketplace-backend/internal/storage"
)

const (
	imageUploadExpiry   = 15 * time.Minute
	imageDownloadExpiry = 365 * 24 * time.Hour
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type productService struct {
	productRepo repository.ProductRepository
	store       storage.ObjectStore
}

func NewProductService(productRepo repository.ProductRepository, store storage.ObjectStore) ProductService {
	return &productService{
		productRepo: productRepo,
		store:       store,
	}
}

func (s *productService) Create(ctx context.Context, p *domain.Product, pricing []domain.ProductPricing) (*domain.Product, error) {
	logger.EnterMethod("productService.Create", "name", p.Name)
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperr.Validation("product name is required")
	}
	if p.Quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	for _, pr := range pricing {
		if err := validatePricing(pr.UnitType, pr.PricePerUnitCents, pr.MinDuration); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		logger.ExitMethodWithError("productService.Create", err)
		return nil, err
	}
	for i := range pricing {
		pricing[i].ProductID = p.ID
		if err := s.productRepo.UpsertPricing(ctx, &pricing[i]); err != nil {
			return nil, err
		}
	}

	logger.ExitMethod("productService.Create", "productID", p.ID)
	return s.Get(ctx, p.ID)
}

func (s *productService) Get(ctx context.Context, id int32) (*domain.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int32, error) {
	switch filter.SortBy {
	case "", "createdAt", "price":
	default:
		return nil, 0, apperr.Validation("sortBy must be createdAt or price")
	}
	return s.productRepo.List(ctx, filter)
}

func (s *productService) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, apperr.Validation("product name is required")
	}
	// Quantity is not editable here; it moves through the stock patch and reservations
	p.Quantity = existing.Quantity
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

func (s *productService) Delete(ctx context.Context, id int32) error {
	err := s.productRepo.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("product")
	}
	return err
}

func (s *productService) UpdateStock(ctx context.Context, id, delta int32) (*domain.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	quantity, err := s.productRepo.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Validation("stock cannot be negative")
		}
		return nil, err
	}
	logger.InfoContext(ctx, "Stock adjusted", "productID", id, "delta", delta, "quantity", quantity)
	return s.Get(ctx, id)
}

func (s *productService) SetPricing(ctx context.Context, productID int32, unit domain.PricingUnit, priceCents int64, minDuration int32) (*domain.Product, error) {
	if err := validatePricing(unit, priceCents, minDuration); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, productID); err != nil {
		return nil, err
	}
	pr := &domain.ProductPricing{
		ProductID:         productID,
		UnitType:          unit,
		PricePerUnitCents: priceCents,
		MinDuration:       minDuration,
	}
	if err := s.productRepo.UpsertPricing(ctx, pr); err != nil {
		return nil, err
	}
	return s.Get(ctx, productID)
}

func (s *productService) UploadImage(ctx context.Context, productID int32, filename, contentType string) (*ImageUpload, error) {
	if !allowedImageTypes[contentType] {
		return nil, apperr.Validation("unsupported image content type")
	}
	p, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	key := storage.ProductImageKey(productID, filename)
	uploadURL, err := s.store.PresignUpload(ctx, key, contentType, imageUploadExpiry)
	if err != nil {
		return nil, apperr.Internal("failed to create upload URL", err)
	}
	downloadURL, err := s.store.PresignDownload(ctx, key, imageDownloadExpiry)
	if err != nil {
		return nil, apperr.Internal("failed to create download URL", err)
	}

	p.ImageURL = downloadURL
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return &ImageUpload{
		Key:         key,
		UploadURL:   uploadURL,
		DownloadURL: downloadURL,
		ExpiresAt:   time.Now().UTC().Add(imageUploadExpiry),
	}, nil
}

func validatePricing(unit domain.PricingUnit, priceCents int64, minDuration int32) error {
	if !unit.Valid() {
		return apperr.Validation("invalid pricing unit")
	}
	if priceCents <= 0 {
		return apperr.Validation("price must be positive")
	}
	if minDuration < 0 {
		return apperr.Validation("minimum duration cannot be negative")
	}
	return nil
}
