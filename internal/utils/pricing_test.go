package utils

import (
	"testing"
	"time"

	"rental-marketplace-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	t.Run("Date only", func(t *testing.T) {
		d, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("RFC3339", func(t *testing.T) {
		d, err := ParseDate("2024-01-15T10:00:00+02:00")
		assert.NoError(t, err)
		assert.Equal(t, 8, d.Hour())
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expected yyyy-mm-dd")
	})
}

func TestRentalDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int64
	}{
		{"same instant counts as one day", start, 1},
		{"four days", start.AddDate(0, 0, 4), 4},
		{"partial day rounds up", start.Add(25 * time.Hour), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RentalDays(start, tt.end)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := RentalDays(start, start.Add(-time.Hour))
	assert.Error(t, err)
}

func TestDailyRentalCost(t *testing.T) {
	// quantity 2 over 4 days at 100.00 per day
	assert.Equal(t, int64(80000), DailyRentalCost(10000, 4, 2))
}

func TestTieredSubtotal(t *testing.T) {
	rates := domain.PricingSnapshot{
		DailyRateCents:   1000,
		WeeklyRateCents:  6000,
		MonthlyRateCents: 20000,
		YearlyRateCents:  200000,
	}

	tests := []struct {
		name     string
		days     int64
		qty      int32
		tier     PricingTier
		subtotal int64
	}{
		{"under a week uses daily", 6, 1, TierDaily, 6000},
		{"exactly a week", 7, 1, TierWeekly, 6000},
		{"ten days rounds up to two weeks", 10, 1, TierWeekly, 12000},
		{"thirty days is one month", 30, 2, TierMonthly, 40000},
		{"forty five days is two months", 45, 1, TierMonthly, 40000},
		{"a year", 365, 1, TierYearly, 200000},
		{"just over a year", 400, 1, TierYearly, 400000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := TieredSubtotal(rates, tt.days, tt.qty)
			assert.Equal(t, tt.tier, b.Tier)
			assert.Equal(t, tt.subtotal, b.SubtotalCents)
		})
	}

	t.Run("Missing tier falls back to daily", func(t *testing.T) {
		b := TieredSubtotal(domain.PricingSnapshot{DailyRateCents: 1000}, 10, 1)
		assert.Equal(t, TierDaily, b.Tier)
		assert.Equal(t, int64(10000), b.SubtotalCents)
	})
}
