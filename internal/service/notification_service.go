package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	"github.com/AdamBeresnev/esports-tournament/internal/utils"
	"github.com/google/uuid"
)

type NotificationService struct {
	store *store.NotificationStore
}

func NewNotificationService(store *store.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]bracket.Notification, error) {
	notifications, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// outbox collects notifications produced by one operation; they are written in the same transaction.
type outbox struct {
	now           time.Time
	notifications []bracket.Notification
}

func newOutbox(now time.Time) *outbox {
	return &outbox{now: now}
}

func (o *outbox) add(recipients []uuid.UUID, typ bracket.NotificationType, title, message string, relatedID uuid.UUID, relatedType string, relatedUser *uuid.UUID) {
	seen := make(map[uuid.UUID]bool)
	for _, userID := range recipients {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		o.notifications = append(o.notifications, bracket.Notification{
			ID:            uuid.New(),
			UserID:        userID,
			Type:          typ,
			Title:         title,
			Message:       message,
			RelatedID:     utils.Ptr(relatedID),
			RelatedType:   utils.Ptr(relatedType),
			RelatedUserID: relatedUser,
			CreatedAt:     o.now,
		})
	}
}
