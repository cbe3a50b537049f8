package domain

import (
	"encoding/json"
	"time"
)

const (
	EventRentalRequestCreated  = "rental_request.created"
	EventRentalRequestApproved = "rental_request.approved"
	EventReservationCreated    = "reservation.created"
	EventReservationStatus     = "reservation.status_changed"
	EventDeliveryStatus        = "delivery.status_changed"
	EventInvoiceCreated        = "invoice.created"
	EventInvoicePayment        = "invoice.payment_received"
	EventInvoiceOverdue        = "invoice.overdue"
)

// OutboxEvent is a domain event written in the same transaction as the change it describes
type OutboxEvent struct {
	ID            int64           `json:"id"`
	EventID       string          `json:"event_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   int32           `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
}

type ReportSummary struct {
	From                  time.Time                     `json:"from"`
	To                    time.Time                     `json:"to"`
	RequestsByStatus      map[RentalRequestStatus]int32 `json:"requests_by_status"`
	ActiveReservations    int32                         `json:"active_reservations"`
	RevenueCollectedCents int64                         `json:"revenue_collected_cents"`
	OutstandingCents      int64                         `json:"outstanding_cents"`
	OverdueInvoices       int32                         `json:"overdue_invoices"`
	LateFeesAccruedCents  int64                         `json:"late_fees_accrued_cents"`
	LowStockProducts      []Product                     `json:"low_stock_products"`
}
