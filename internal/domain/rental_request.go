package domain

import "time"

type RentalRequestStatus string

const (
	RentalRequestStatusPending   RentalRequestStatus = "pending"
	RentalRequestStatusApproved  RentalRequestStatus = "approved"
	RentalRequestStatusRejected  RentalRequestStatus = "rejected"
	RentalRequestStatusCancelled RentalRequestStatus = "cancelled"
	RentalRequestStatusConfirmed RentalRequestStatus = "confirmed"
	RentalRequestStatusCompleted RentalRequestStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// RentalPeriod is the requested rental window
type RentalPeriod struct {
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	DurationType  string    `json:"duration_type"`
	DurationValue int32     `json:"duration_value"`
}

type RentalRequest struct {
	ID                    int32               `json:"id"`
	CustomerID            int32               `json:"customer_id"`
	ProductID             int32               `json:"product_id"`
	ProductName           string              `json:"product_name"`
	ProductDailyRateCents int64               `json:"product_daily_rate_cents"`
	Quantity              int32               `json:"quantity"`
	RentalPeriod          RentalPeriod        `json:"rental_period"`
	TotalAmountCents      int64               `json:"total_amount_cents"`
	Status                RentalRequestStatus `json:"status"`
	PaymentStatus         PaymentStatus       `json:"payment_status"`
	PaymentAmountCents    int64               `json:"payment_amount_cents"`
	PaymentDueDate        time.Time           `json:"payment_due_date"`
	DeliveryAddress       string              `json:"delivery_address"`
	AdminNotes            string              `json:"admin_notes"`
	ApprovedBy            *int32              `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time          `json:"approved_at,omitempty"`
	RejectedAt            *time.Time          `json:"rejected_at,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}
