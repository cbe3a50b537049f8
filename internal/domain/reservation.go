package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusPickedUp  ReservationStatus = "picked_up"
	ReservationStatusDelivered ReservationStatus = "delivered"
	ReservationStatusReturned  ReservationStatus = "returned"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// reservationTransitions lists the allowed next status for each status
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusReserved:  {ReservationStatusPickedUp, ReservationStatusCancelled},
	ReservationStatusPickedUp:  {ReservationStatusDelivered},
	ReservationStatusDelivered: {ReservationStatusReturned},
}

// CanTransitionTo reports whether the reservation may move from s to next
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReleasesStock reports whether reaching s gives the reserved units back
func (s ReservationStatus) ReleasesStock() bool {
	return s == ReservationStatusReturned || s == ReservationStatusCancelled
}

type Reservation struct {
	ID                     int32             `json:"id"`
	RentalRequestID        int32             `json:"rental_request_id"`
	CustomerID             int32             `json:"customer_id"`
	ProductID              int32             `json:"product_id"`
	Quantity               int32             `json:"quantity"`
	StartDate              time.Time         `json:"start_date"`
	EndDate                time.Time         `json:"end_date"`
	TotalAmountCents       int64             `json:"total_amount_cents"`
	Status                 ReservationStatus `json:"status"`
	ScheduledPickupDate    time.Time         `json:"scheduled_pickup_date"`
	ScheduledDeliveryDate  time.Time         `json:"scheduled_delivery_date"`
	ScheduledReturnDate    time.Time         `json:"scheduled_return_date"`
	ActualPickupDate       *time.Time        `json:"actual_pickup_date,omitempty"`
	ActualDeliveryDate     *time.Time        `json:"actual_delivery_date,omitempty"`
	ActualReturnDate       *time.Time        `json:"actual_return_date,omitempty"`
	PickupNotes            string            `json:"pickup_notes"`
	DeliveryNotes          string            `json:"delivery_notes"`
	ReturnNotes            string            `json:"return_notes"`
	CancellationReason     string            `json:"cancellation_reason"`
	AssignedPickupMember   *int32            `json:"assigned_pickup_member,omitempty"`
	AssignedDeliveryMember *int32            `json:"assigned_delivery_member,omitempty"`
	AssignedReturnMember   *int32            `json:"assigned_return_member,omitempty"`
	IsActive               bool              `json:"is_active"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// ApplyTransition stamps the actual date, notes and team member for the new status.
// The caller validates the transition first.
func (r *Reservation) ApplyTransition(next ReservationStatus, memberID *int32, notes string, now time.Time) {
	r.Status = next
	switch next {
	case ReservationStatusPickedUp:
		r.ActualPickupDate = &now
		r.PickupNotes = notes
		r.AssignedPickupMember = memberID
	case ReservationStatusDelivered:
		r.ActualDeliveryDate = &now
		r.DeliveryNotes = notes
		r.AssignedDeliveryMember = memberID
	case ReservationStatusReturned:
		r.ActualReturnDate = &now
		r.ReturnNotes = notes
		r.AssignedReturnMember = memberID
		r.IsActive = false
	case ReservationStatusCancelled:
		r.CancellationReason = notes
		r.IsActive = false
	}
}

// ReservationSchedule carries the admin-chosen dates for the physical operations
type ReservationSchedule struct {
	PickupDate   *time.Time `json:"pickup_date,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	ReturnDate   *time.Time `json:"return_date,omitempty"`
}
