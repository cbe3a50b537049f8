package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const outboundTimeout = 10 * time.Second

func notifyUser(ctx context.Context, repo repository.NotificationRepository, userID int32, typ domain.NotificationType, title, message string, metadata map[string]string) error {
	n := &domain.Notification{
		UserID:   userID,
		Type:     typ,
		Title:    title,
		Message:  message,
		Metadata: metadata,
	}
	if err := repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create %s notification: %w", typ, err)
	}
	return nil
}

// notifyAdmins fans a notification out to every admin. A failure for one
// recipient is logged and does not stop the others.
func notifyAdmins(ctx context.Context, users repository.UserRepository, repo repository.NotificationRepository, typ domain.NotificationType, title, message string, metadata map[string]string) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list admins for notification", "type", typ, "error", err)
		return
	}
	for _, admin := range admins {
		if err := notifyUser(ctx, repo, admin.ID, typ, title, message, metadata); err != nil {
			logger.ErrorContext(ctx, "Failed to notify admin", "adminID", admin.ID, "type", typ, "error", err)
		}
	}
}

// appendEvent writes a domain event to the outbox with the caller's repositories
func appendEvent(ctx context.Context, outbox repository.OutboxRepository, aggregateType string, aggregateID int32, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	e := &domain.OutboxEvent{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}
	if err := outbox.Append(ctx, e); err != nil {
		return fmt.Errorf("failed to append %s event: %w", eventType, err)
	}
	return nil
}

// sendEmailToUser looks up the user and emails them; failures are logged only
func sendEmailToUser(ctx context.Context, users repository.UserRepository, sender EmailSender, userID int32, subject, body string) {
	if sender == nil {
		return
	}
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load user for email", "userID", userID, "error", err)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()
	if err := sender.Send(sendCtx, user.Email, user.Name, subject, body); err != nil {
		logger.WarnContext(ctx, "Failed to send email", "userID", userID, "subject", subject, "error", err)
	}
}

func idString(id int32) string {
	return fmt.Sprintf("%d", id)
}

func formatCents(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}
