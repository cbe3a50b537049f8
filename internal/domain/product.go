package domain

import "time"

type PricingUnit string

const (
	PricingUnitHour  PricingUnit = "hour"
	PricingUnitDay   PricingUnit = "day"
	PricingUnitWeek  PricingUnit = "week"
	PricingUnitMonth PricingUnit = "month"
	PricingUnitYear  PricingUnit = "year"
)

func (u PricingUnit) Valid() bool {
	switch u {
	case PricingUnitHour, PricingUnitDay, PricingUnitWeek, PricingUnitMonth, PricingUnitYear:
		return true
	}
	return false
}

// ProductPricing is one rate row of a product's price list
type ProductPricing struct {
	ID                int32       `json:"id"`
	ProductID         int32       `json:"product_id"`
	UnitType          PricingUnit `json:"unit_type"`
	PricePerUnitCents int64       `json:"price_per_unit_cents"`
	MinDuration       int32       `json:"min_duration"`
}

type Product struct {
	ID            int32     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Quantity      int32     `json:"quantity"`
	IsRentable    bool      `json:"is_rentable"`
	AverageRating float64   `json:"average_rating"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Rates joined from product_pricing, zero when the unit is not priced
	HourlyRateCents  int64 `json:"hourly_rate_cents"`
	DailyRateCents   int64 `json:"daily_rate_cents"`
	WeeklyRateCents  int64 `json:"weekly_rate_cents"`
	MonthlyRateCents int64 `json:"monthly_rate_cents"`
	YearlyRateCents  int64 `json:"yearly_rate_cents"`
}

// Rates returns the product's price list as an invoice pricing snapshot
func (p *Product) Rates() PricingSnapshot {
	return PricingSnapshot{
		HourlyRateCents:  p.HourlyRateCents,
		DailyRateCents:   p.DailyRateCents,
		WeeklyRateCents:  p.WeeklyRateCents,
		MonthlyRateCents: p.MonthlyRateCents,
		YearlyRateCents:  p.YearlyRateCents,
	}
}

// SetRate stores a rate on the flattened rate fields
func (p *Product) SetRate(unit PricingUnit, cents int64) {
	switch unit {
	case PricingUnitHour:
		p.HourlyRateCents = cents
	case PricingUnitDay:
		p.DailyRateCents = cents
	case PricingUnitWeek:
		p.WeeklyRateCents = cents
	case PricingUnitMonth:
		p.MonthlyRateCents = cents
	case PricingUnitYear:
		p.YearlyRateCents = cents
	}
}

type ProductFilter struct {
	Category  string
	Available *bool
	SortBy    string // "createdAt" or "price"
	SortOrder string // "asc" or "desc"
	Page      int32
	PageSize  int32
}
