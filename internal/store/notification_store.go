package store

import (
	"context"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) CreateNotifications(ctx context.Context, q sqlx.ExtContext, notifications []bracket.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO notifications (id, user_id, notification_type, title, message, is_read, related_id, related_type, related_user_id, created_at)
		VALUES (:id, :user_id, :notification_type, :title, :message, :is_read, :related_id, :related_type, :related_user_id, :created_at)`, notifications)
	return err
}

func (s *NotificationStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]bracket.Notification, error) {
	notifications := []bracket.Notification{}
	err := s.db.SelectContext(ctx, &notifications, s.db.Rebind("SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id ASC"), userID)
	return notifications, err
}

// MarkRead flags one notification of the user as read and reports whether it existed.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?"), true, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?"), true, userID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *NotificationStore) Delete(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM notifications WHERE id = ? AND user_id = ?"), id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
