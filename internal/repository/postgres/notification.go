package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `n.id, n.user_id, n.type, n.title, n.message, n.is_read, n.scheduled_for, n.sent_at, n.email_sent, n.push_sent, n.metadata, n.created_at`

func scanNotification(row rowScanner, extra ...any) (*domain.Notification, error) {
	n := &domain.Notification{}
	var metadata []byte
	dest := append([]any{&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.ScheduledFor, &n.SentAt, &n.EmailSent, &n.PushSent, &metadata, &n.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			logger.Warn("Failed to unmarshal notification metadata", "notificationID", n.ID, "error", err)
		}
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type)

	if n.Metadata == nil {
		n.Metadata = map[string]string{}
	}
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to marshal metadata")
		return err
	}

	query := `INSERT INTO notifications (user_id, type, title, message, is_read, scheduled_for, sent_at, email_sent, push_sent, metadata, created_at) 
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	n.CreatedAt = time.Now().UTC()

	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID)
	err = r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.IsRead, n.ScheduledFor, n.SentAt, n.EmailSent, n.PushSent, metadata, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "userID", n.UserID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

// List returns visible notifications, newest first. Scheduled notifications become visible once sent.
func (r *notificationRepository) List(ctx context.Context, userID int32, unreadOnly bool, limit, offset int32) ([]domain.Notification, int32, error) {
	where := ` FROM notifications n WHERE n.user_id = $1 AND (n.scheduled_for IS NULL OR n.sent_at IS NOT NULL)`
	if unreadOnly {
		where += ` AND NOT n.is_read`
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*)`+where, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+notificationColumns+where+` ORDER BY n.created_at DESC, n.id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int32) error {
	logger.DatabaseCall("UPDATE", "notifications", "notificationID", id, "userID", userID)
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil)
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int32) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID int32) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read AND (scheduled_for IS NULL OR sent_at IS NOT NULL)`, userID).Scan(&count)
	return count, err
}

func (r *notificationRepository) Delete(ctx context.Context, id, userID int32) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) CountByType(ctx context.Context, userID int32) (map[domain.NotificationType]int32, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT type, count(*) FROM notifications WHERE user_id = $1 GROUP BY type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.NotificationType]int32)
	for rows.Next() {
		var t domain.NotificationType
		var n int32
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

func (r *notificationRepository) CountPendingScheduled(ctx context.Context, userID int32) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND scheduled_for IS NOT NULL AND sent_at IS NULL`, userID).Scan(&count)
	return count, err
}

// ListDueScheduled returns the backlog of scheduled notifications that are due and unsent,
// joined with the recipient's contact details. Rows waiting out a retry delay or past
// their attempt budget are skipped.
func (r *notificationRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int32) ([]domain.ScheduledNotification, error) {
	query := `SELECT ` + notificationColumns + `, n.attempts, u.email, u.name, u.push_token
	          FROM notifications n JOIN users u ON u.id = n.user_id
	          WHERE n.scheduled_for <= $1 AND n.sent_at IS NULL
	            AND n.attempts < $2 AND (n.next_attempt_at IS NULL OR n.next_attempt_at <= $1)
	          ORDER BY COALESCE(n.next_attempt_at, n.scheduled_for) LIMIT $3`
	logger.DatabaseCall("SELECT", "notifications", "dueBefore", now)
	rows, err := r.db.QueryContext(ctx, query, now, domain.MaxScheduledAttempts, limit)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, err
	}
	defer rows.Close()

	var due []domain.ScheduledNotification
	for rows.Next() {
		var sn domain.ScheduledNotification
		n, err := scanNotification(rows, &sn.Attempts, &sn.Email, &sn.Name, &sn.PushToken)
		if err != nil {
			return nil, err
		}
		sn.Notification = *n
		due = append(due, sn)
	}
	logger.DatabaseResult("SELECT", int64(len(due)), rows.Err())
	return due, rows.Err()
}

func (r *notificationRepository) MarkEmailSent(ctx context.Context, id int32) error {
	return r.execOne(ctx, `UPDATE notifications SET email_sent = TRUE WHERE id = $1`, id)
}

func (r *notificationRepository) MarkPushSent(ctx context.Context, id int32) error {
	return r.execOne(ctx, `UPDATE notifications SET push_sent = TRUE WHERE id = $1`, id)
}

func (r *notificationRepository) MarkSent(ctx context.Context, id int32, sentAt time.Time) error {
	return r.execOne(ctx, `UPDATE notifications SET sent_at = $1, next_attempt_at = NULL WHERE id = $2`, sentAt, id)
}

func (r *notificationRepository) RecordFailedAttempt(ctx context.Context, id int32, nextAttemptAt time.Time) error {
	return r.execOne(ctx, `UPDATE notifications SET attempts = attempts + 1, next_attempt_at = $1 WHERE id = $2`, nextAttemptAt, id)
}

// execOne runs an update that must touch exactly one notification
func (r *notificationRepository) execOne(ctx context.Context, query string, args ...any) error {
	logger.DatabaseCall("UPDATE", "notifications", "args", args)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil)
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
