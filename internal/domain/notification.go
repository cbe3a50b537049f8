package domain

import "time"

type NotificationType string

const (
	NotificationRentalRequestCreated   NotificationType = "rental_request_created"
	NotificationRentalRequestApproved  NotificationType = "rental_request_approved"
	NotificationRentalRequestRejected  NotificationType = "rental_request_rejected"
	NotificationRentalRequestCancelled NotificationType = "rental_request_cancelled"
	NotificationPaymentReceived        NotificationType = "payment_received"
	NotificationPaymentReminder        NotificationType = "payment_reminder"
	NotificationOrderConfirmed         NotificationType = "order_confirmed"
	NotificationReservationCreated     NotificationType = "reservation_created"
	NotificationItemPickedUp           NotificationType = "item_picked_up"
	NotificationItemDelivered          NotificationType = "item_delivered"
	NotificationItemReturned           NotificationType = "item_returned"
	NotificationReservationCancelled   NotificationType = "reservation_cancelled"
	NotificationDeliveryScheduled      NotificationType = "delivery_scheduled"
	NotificationDeliveryCompleted      NotificationType = "delivery_completed"
	NotificationInvoiceCreated         NotificationType = "invoice_created"
	NotificationInvoiceOverdue         NotificationType = "invoice_overdue"
)

type Notification struct {
	ID           int32             `json:"id"`
	UserID       int32             `json:"user_id"`
	Type         NotificationType  `json:"type"`
	Title        string            `json:"title"`
	Message      string            `json:"message"`
	IsRead       bool              `json:"is_read"`
	ScheduledFor *time.Time        `json:"scheduled_for,omitempty"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	EmailSent    bool              `json:"email_sent"`
	PushSent     bool              `json:"push_sent"`
	Metadata     map[string]string `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ScheduledNotification is a due notification joined with its recipient's delivery info
type ScheduledNotification struct {
	Notification
	Email     string `json:"email"`
	Name      string `json:"name"`
	PushToken string `json:"-"`
	// Attempts counts earlier runs that failed on at least one channel
	Attempts int32 `json:"-"`
}

// MaxScheduledAttempts is how many failed runs a scheduled notification gets
// before it drops out of the backlog
const MaxScheduledAttempts = 5

type NotificationStats struct {
	Total            int32                      `json:"total"`
	Unread           int32                      `json:"unread"`
	PendingScheduled int32                      `json:"pending_scheduled"`
	ByType           map[NotificationType]int32 `json:"by_type"`
	Preferences      NotificationPreferences    `json:"preferences"`
}
