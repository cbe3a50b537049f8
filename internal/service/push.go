package service

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type fcmPushSender struct {
	client *messaging.Client
}

// NewFCMPushSender creates a Firebase Cloud Messaging sender from a service account file
func NewFCMPushSender(ctx context.Context, credentialsFile string) (PushSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &fcmPushSender{client: client}, nil
}

func (s *fcmPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	logger.ExternalServiceCall("fcm", "Send", "title", title)
	id, err := s.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "Send", err, "messageID", id)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}

// NoopPushSender is used when push is disabled
type NoopPushSender struct{}

func (NoopPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	return nil
}
