package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rental-marketplace-backend/internal/apperr"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type notificationService struct {
	noteRepo     repository.NotificationRepository
	settingsRepo repository.SettingsRepository
	email        EmailSender
	push         PushSender
	batchSize    int32
}

func NewNotificationService(noteRepo repository.NotificationRepository, settingsRepo repository.SettingsRepository, email EmailSender, push PushSender, batchSize int32) NotificationService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &notificationService{
		noteRepo:     noteRepo,
		settingsRepo: settingsRepo,
		email:        email,
		push:         push,
		batchSize:    batchSize,
	}
}

func (s *notificationService) List(ctx context.Context, userID int32, unreadOnly bool, page, limit int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit
	return s.noteRepo.List(ctx, userID, unreadOnly, limit, offset)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id int32) error {
	if err := s.noteRepo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("notification")
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int32) (int64, error) {
	return s.noteRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int32) (int32, error) {
	return s.noteRepo.CountUnread(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID, id int32) error {
	if err := s.noteRepo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("notification")
		}
		return err
	}
	return nil
}

func (s *notificationService) Stats(ctx context.Context, userID int32) (*domain.NotificationStats, error) {
	byType, err := s.noteRepo.CountByType(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.noteRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.noteRepo.CountPendingScheduled(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := preferencesOrDefault(ctx, s.settingsRepo, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.NotificationStats{
		Unread:           unread,
		PendingScheduled: pending,
		ByType:           byType,
		Preferences:      prefs,
	}
	for _, n := range byType {
		stats.Total += n
	}
	return stats, nil
}

// ProcessScheduled delivers due scheduled notifications over email and push.
// Each channel is recorded as soon as it succeeds so a retry only repeats the
// channels that failed. A notification is stamped sent once every enabled
// channel has gone out; otherwise it is held back with an exponential delay
// until it runs out of attempts.
func (s *notificationService) ProcessScheduled(ctx context.Context, now time.Time) (int, error) {
	logger.EnterMethod("notificationService.ProcessScheduled", "now", now)

	due, err := s.noteRepo.ListDueScheduled(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, n := range due {
		prefs, err := preferencesOrDefault(ctx, s.settingsRepo, n.UserID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to load notification preferences", "notificationID", n.ID, "userID", n.UserID, "error", err)
			continue
		}

		failed := false
		if prefs.EmailEnabled && s.email != nil && n.Email != "" && !n.EmailSent {
			if err := s.sendScheduledEmail(ctx, n); err != nil {
				logger.WarnContext(ctx, "Scheduled email failed", "notificationID", n.ID, "attempt", n.Attempts+1, "error", err)
				failed = true
			}
		}
		if prefs.PushEnabled && s.push != nil && n.PushToken != "" && !n.PushSent {
			if err := s.sendScheduledPush(ctx, n); err != nil {
				logger.WarnContext(ctx, "Scheduled push failed", "notificationID", n.ID, "attempt", n.Attempts+1, "error", err)
				failed = true
			}
		}

		if failed {
			s.recordFailedAttempt(ctx, n, now)
			continue
		}
		if err := s.noteRepo.MarkSent(ctx, n.ID, now); err != nil {
			logger.ErrorContext(ctx, "Failed to mark notification sent", "notificationID", n.ID, "error", err)
			continue
		}
		processed++
	}

	logger.ExitMethod("notificationService.ProcessScheduled", "due", len(due), "processed", processed)
	return processed, nil
}

func (s *notificationService) sendScheduledEmail(ctx context.Context, n domain.ScheduledNotification) error {
	sendCtx, cancel := context.WithTimeout(ctx, outboundTimeout)
	err := s.email.Send(sendCtx, n.Email, n.Name, n.Title, n.Message)
	cancel()
	if err != nil {
		return err
	}
	return s.noteRepo.MarkEmailSent(ctx, n.ID)
}

func (s *notificationService) sendScheduledPush(ctx context.Context, n domain.ScheduledNotification) error {
	sendCtx, cancel := context.WithTimeout(ctx, outboundTimeout)
	err := s.push.Send(sendCtx, n.PushToken, n.Title, n.Message, n.Metadata)
	cancel()
	if err != nil {
		return err
	}
	return s.noteRepo.MarkPushSent(ctx, n.ID)
}

func (s *notificationService) recordFailedAttempt(ctx context.Context, n domain.ScheduledNotification, now time.Time) {
	attempt := n.Attempts + 1
	if attempt >= domain.MaxScheduledAttempts {
		logger.ErrorContext(ctx, "Giving up on scheduled notification", "notificationID", n.ID, "attempts", attempt)
	}
	if err := s.noteRepo.RecordFailedAttempt(ctx, n.ID, now.Add(retryDelay(attempt))); err != nil {
		logger.ErrorContext(ctx, "Failed to record notification attempt", "notificationID", n.ID, "error", err)
	}
}

// retryDelay doubles from five minutes per failed attempt, capped at six hours
func retryDelay(attempt int32) time.Duration {
	delay := 5 * time.Minute
	for i := int32(1); i < attempt && delay < 6*time.Hour; i++ {
		delay *= 2
	}
	return min(delay, 6*time.Hour)
}
