package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type InvoicePaymentStatus string

const (
	InvoicePaymentPending InvoicePaymentStatus = "pending"
	InvoicePaymentPartial InvoicePaymentStatus = "partial"
	InvoicePaymentPaid    InvoicePaymentStatus = "paid"
	InvoicePaymentOverdue InvoicePaymentStatus = "overdue"
)

const (
	PaymentMethodFull           = "full"
	PaymentMethodPartialDeposit = "partial_deposit"
)

// PricingSnapshot freezes the product rates at invoice time
type PricingSnapshot struct {
	HourlyRateCents  int64 `json:"hourly_rate_cents"`
	DailyRateCents   int64 `json:"daily_rate_cents"`
	WeeklyRateCents  int64 `json:"weekly_rate_cents"`
	MonthlyRateCents int64 `json:"monthly_rate_cents"`
	YearlyRateCents  int64 `json:"yearly_rate_cents"`
}

type LateFeeConfig struct {
	GracePeriodDays      int             `json:"grace_period_days"`
	LateFeeRate          decimal.Decimal `json:"late_fee_rate"`
	MaxDailyLateFeeCents int64           `json:"max_daily_late_fee_cents"`
}

type Installment struct {
	AmountCents int64      `json:"amount_cents"`
	DueDate     time.Time  `json:"due_date"`
	Paid        bool       `json:"paid"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

type PaymentDetails struct {
	UpfrontPaymentCents   int64         `json:"upfront_payment_cents"`
	RemainingBalanceCents int64         `json:"remaining_balance_cents"`
	PaymentMethod         string        `json:"payment_method"`
	Installments          []Installment `json:"installments"`
}

type Invoice struct {
	ID                   int32                `json:"id"`
	InvoiceNumber        string               `json:"invoice_number"`
	RentalRequestID      int32                `json:"rental_request_id"`
	ReservationID        int32                `json:"reservation_id"`
	CustomerID           int32                `json:"customer_id"`
	ProductID            int32                `json:"product_id"`
	Quantity             int32                `json:"quantity"`
	RentalPeriod         RentalPeriod         `json:"rental_period"`
	Pricing              PricingSnapshot      `json:"pricing"`
	SubtotalCents        int64                `json:"subtotal_cents"`
	SecurityDepositCents int64                `json:"security_deposit_cents"`
	LateFeeConfig        LateFeeConfig        `json:"late_fee_config"`
	LateFeesCents        int64                `json:"late_fees_cents"`
	TotalAmountCents     int64                `json:"total_amount_cents"`
	PaymentStatus        InvoicePaymentStatus `json:"payment_status"`
	PaymentDetails       PaymentDetails       `json:"payment_details"`
	Status               InvoiceStatus        `json:"status"`
	DueDate              time.Time            `json:"due_date"`
	IssuedDate           time.Time            `json:"issued_date"`
	PaidDate             *time.Time           `json:"paid_date,omitempty"`
	Notes                string               `json:"notes"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// DailyLateFee is min(daily rate * rate fraction, max daily fee), rounded to the cent
func (inv *Invoice) DailyLateFee() int64 {
	fee := decimal.NewFromInt(inv.Pricing.DailyRateCents).
		Mul(inv.LateFeeConfig.LateFeeRate).
		Round(0).
		IntPart()
	if inv.LateFeeConfig.MaxDailyLateFeeCents > 0 && fee > inv.LateFeeConfig.MaxDailyLateFeeCents {
		return inv.LateFeeConfig.MaxDailyLateFeeCents
	}
	return fee
}

// DaysOverdue counts started days past the rental end date plus the grace period
func (inv *Invoice) DaysOverdue(now time.Time) int64 {
	deadline := inv.RentalPeriod.EndDate.Add(time.Duration(inv.LateFeeConfig.GracePeriodDays) * day)
	if !now.After(deadline) {
		return 0
	}
	return int64(math.Ceil(float64(now.Sub(deadline)) / float64(day)))
}

// ComputeLateFees returns the late fees owed as of now
func (inv *Invoice) ComputeLateFees(now time.Time) int64 {
	return inv.DailyLateFee() * inv.DaysOverdue(now)
}

// Recalculate derives late fees, totals, payment status and status as of now.
// It runs before every save. Late fees stop accruing once the invoice is paid.
func (inv *Invoice) Recalculate(now time.Time) {
	asOf := now
	if inv.PaidDate != nil {
		asOf = *inv.PaidDate
	}
	inv.LateFeesCents = inv.ComputeLateFees(asOf)
	inv.TotalAmountCents = inv.SubtotalCents + inv.SecurityDepositCents + inv.LateFeesCents

	upfront := inv.PaymentDetails.UpfrontPaymentCents
	inv.PaymentDetails.RemainingBalanceCents = inv.TotalAmountCents - upfront
	if inv.PaymentDetails.RemainingBalanceCents < 0 {
		inv.PaymentDetails.RemainingBalanceCents = 0
	}

	switch {
	case upfront >= inv.TotalAmountCents:
		inv.PaymentStatus = InvoicePaymentPaid
		if inv.PaidDate == nil {
			paid := now
			inv.PaidDate = &paid
		}
	case upfront > 0:
		inv.PaymentStatus = InvoicePaymentPartial
	default:
		inv.PaymentStatus = InvoicePaymentPending
	}

	if inv.PaymentStatus != InvoicePaymentPaid && now.After(inv.DueDate) {
		inv.PaymentStatus = InvoicePaymentOverdue
	}

	if inv.Status == InvoiceStatusCancelled {
		return
	}
	switch inv.PaymentStatus {
	case InvoicePaymentPaid:
		inv.Status = InvoiceStatusPaid
	case InvoicePaymentOverdue:
		inv.Status = InvoiceStatusOverdue
	}
}

// ApplyPayment adds amount to the upfront payment and marks installments paid in
// order while the payment covers each one in full.
func (inv *Invoice) ApplyPayment(amount int64, now time.Time) {
	inv.PaymentDetails.UpfrontPaymentCents += amount
	remaining := amount
	for i := range inv.PaymentDetails.Installments {
		inst := &inv.PaymentDetails.Installments[i]
		if inst.Paid {
			continue
		}
		if remaining < inst.AmountCents {
			break
		}
		remaining -= inst.AmountCents
		inst.Paid = true
		paidAt := now
		inst.PaidAt = &paidAt
	}
}

// SplitInstallments divides the unpaid remainder into two installments due at
// pickup and delivery; the second absorbs the odd cent.
func SplitInstallments(remainder int64, firstDue, secondDue time.Time) []Installment {
	first := remainder / 2
	return []Installment{
		{AmountCents: first, DueDate: firstDue},
		{AmountCents: remainder - first, DueDate: secondDue},
	}
}

type InvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID *int32
	Page       int32
	PageSize   int32
}
