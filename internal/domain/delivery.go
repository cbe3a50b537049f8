package domain

import "time"

type OperationType string

const (
	OperationTypePickup   OperationType = "pickup"
	OperationTypeDelivery OperationType = "delivery"
	OperationTypeReturn   OperationType = "return"
)

func (o OperationType) Valid() bool {
	return o == OperationTypePickup || o == OperationTypeDelivery || o == OperationTypeReturn
}

// ReservationTarget is the reservation status a completed operation moves its reservation to
func (o OperationType) ReservationTarget() ReservationStatus {
	switch o {
	case OperationTypePickup:
		return ReservationStatusPickedUp
	case OperationTypeDelivery:
		return ReservationStatusDelivered
	default:
		return ReservationStatusReturned
	}
}

type DeliveryStatus string

const (
	DeliveryStatusScheduled  DeliveryStatus = "scheduled"
	DeliveryStatusInProgress DeliveryStatus = "in_progress"
	DeliveryStatusCompleted  DeliveryStatus = "completed"
	DeliveryStatusCancelled  DeliveryStatus = "cancelled"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusScheduled:  {DeliveryStatusInProgress, DeliveryStatusCancelled},
	DeliveryStatusInProgress: {DeliveryStatusCompleted, DeliveryStatusCancelled},
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpen reports whether the operation has not finished yet
func (s DeliveryStatus) IsOpen() bool {
	return s == DeliveryStatusScheduled || s == DeliveryStatusInProgress
}

type Delivery struct {
	ID              int32          `json:"id"`
	ReservationID   int32          `json:"reservation_id"`
	RentalRequestID int32          `json:"rental_request_id"`
	OperationType   OperationType  `json:"operation_type"`
	Status          DeliveryStatus `json:"status"`
	ScheduledDate   time.Time      `json:"scheduled_date"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	AssignedTo      *int32         `json:"assigned_to,omitempty"`
	Address         string         `json:"address"`
	Notes           string         `json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type DeliveryFilter struct {
	Status        DeliveryStatus
	OperationType OperationType
	Date          *time.Time
	AssignedTo    *int32
	Page          int32
	PageSize      int32
}

// OperationChecklists holds the fixed instructions printed on an operation document
var OperationChecklists = map[OperationType][]string{
	OperationTypePickup: {
		"Verify product serial number and condition against the catalog entry",
		"Confirm quantity matches the reservation",
		"Photograph the item before loading",
		"Record pickup time and staff member",
	},
	OperationTypeDelivery: {
		"Confirm customer identity before handing over",
		"Walk the customer through safe operation of the product",
		"Collect customer signature on the delivery note",
		"Record delivery time and any visible damage",
	},
	OperationTypeReturn: {
		"Inspect the item for damage and missing parts",
		"Confirm returned quantity matches the reservation",
		"Photograph the item after unloading",
		"Record return time and note any late return",
	},
}

// OperationDocument is the printable summary of one physical operation
type OperationDocument struct {
	DocumentType    string        `json:"document_type"`
	GeneratedAt     time.Time     `json:"generated_at"`
	OperationType   OperationType `json:"operation_type,omitempty"`
	ReservationID   int32         `json:"reservation_id"`
	RentalRequestID int32         `json:"rental_request_id"`
	Status          string        `json:"status"`
	ScheduledDate   *time.Time    `json:"scheduled_date,omitempty"`
	Customer        DocumentParty `json:"customer"`
	Product         DocumentItem  `json:"product"`
	RentalPeriod    RentalPeriod  `json:"rental_period"`
	Address         string        `json:"address"`
	Notes           string        `json:"notes,omitempty"`
	Checklist       []string      `json:"checklist"`
}

type DocumentParty struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type DocumentItem struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int32  `json:"quantity"`
}
