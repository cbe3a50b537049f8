package utils

import (
	"fmt"
	"math"
	"time"

	"rental-marketplace-backend/internal/domain"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 30
	daysPerYear  = 365
)

// PricingTier names the rate a subtotal was computed with
type PricingTier string

const (
	TierDaily   PricingTier = "daily"
	TierWeekly  PricingTier = "weekly"
	TierMonthly PricingTier = "monthly"
	TierYearly  PricingTier = "yearly"
)

// SubtotalBreakdown explains how a tiered subtotal was derived
type SubtotalBreakdown struct {
	Days          int64       `json:"days"`
	Tier          PricingTier `json:"tier"`
	Units         int64       `json:"units"`
	RateCents     int64       `json:"rate_cents"`
	Quantity      int32       `json:"quantity"`
	SubtotalCents int64       `json:"subtotal_cents"`
}

// ParseDate accepts yyyy-mm-dd or RFC3339 and returns the instant in UTC
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", s)
	}
	return t.UTC(), nil
}

// RentalDays counts started days between start and end, with a minimum of one
func RentalDays(start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("end date must be >= start date")
	}
	days := int64(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, nil
}

// DailyRentalCost prices a rental request: daily rate x days x quantity, no tiering
func DailyRentalCost(dailyRateCents, days int64, quantity int32) int64 {
	return dailyRateCents * days * int64(quantity)
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// TieredSubtotal picks the rate by duration: >= 365 days yearly, >= 30 monthly,
// >= 7 weekly, otherwise daily. A tier without a rate falls back to daily x days.
func TieredSubtotal(rates domain.PricingSnapshot, days int64, quantity int32) SubtotalBreakdown {
	b := SubtotalBreakdown{Days: days, Quantity: quantity, Tier: TierDaily, Units: days, RateCents: rates.DailyRateCents}

	switch {
	case days >= daysPerYear && rates.YearlyRateCents > 0:
		b.Tier, b.Units, b.RateCents = TierYearly, ceilDiv(days, daysPerYear), rates.YearlyRateCents
	case days >= daysPerMonth && days < daysPerYear && rates.MonthlyRateCents > 0:
		b.Tier, b.Units, b.RateCents = TierMonthly, ceilDiv(days, daysPerMonth), rates.MonthlyRateCents
	case days >= daysPerWeek && days < daysPerMonth && rates.WeeklyRateCents > 0:
		b.Tier, b.Units, b.RateCents = TierWeekly, ceilDiv(days, daysPerWeek), rates.WeeklyRateCents
	}

	b.SubtotalCents = b.Units * b.RateCents * int64(quantity)
	return b
}
