package service

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/repository"
)

type reportService struct {
	repos             *repository.Repos
	lowStockThreshold int32
}

func NewReportService(repos *repository.Repos, lowStockThreshold int32) ReportService {
	return &reportService{repos: repos, lowStockThreshold: lowStockThreshold}
}

// Summary aggregates rental activity for requests and invoices created in [from, to)
func (s *reportService) Summary(ctx context.Context, from, to time.Time) (*domain.ReportSummary, error) {
	if !to.After(from) {
		return nil, apperr.Validation("report end date must be after start date")
	}

	byStatus, err := s.repos.RentalRequests.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count rental requests: %w", err)
	}
	active, err := s.repos.Reservations.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active reservations: %w", err)
	}
	totals, err := s.repos.Invoices.Totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to total invoices: %w", err)
	}
	lowStock, err := s.repos.Products.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	if lowStock == nil {
		lowStock = []domain.Product{}
	}

	return &domain.ReportSummary{
		From:                  from,
		To:                    to,
		RequestsByStatus:      byStatus,
		ActiveReservations:    active,
		RevenueCollectedCents: totals.RevenueCollectedCents,
		OutstandingCents:      totals.OutstandingCents,
		OverdueInvoices:       totals.OverdueCount,
		LateFeesAccruedCents:  totals.LateFeesCents,
		LowStockProducts:      lowStock,
	}, nil
}
