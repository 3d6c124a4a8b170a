package bracket

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationResultReported  NotificationType = "result_reported"
	NotificationResultConfirmed NotificationType = "result_confirmed"
	NotificationResultDisputed  NotificationType = "result_disputed"
	NotificationMatchWon        NotificationType = "match_won"
	NotificationMatchLost       NotificationType = "match_lost"
	NotificationTournamentWon   NotificationType = "tournament_won"
)

const (
	RelatedMatch       = "match"
	RelatedMatchResult = "match_result"
	RelatedTournament  = "tournament"
)

type Notification struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	UserID        uuid.UUID        `db:"user_id" json:"userId"`
	Type          NotificationType `db:"notification_type" json:"type"`
	Title         string           `db:"title" json:"title"`
	Message       string           `db:"message" json:"message"`
	IsRead        bool             `db:"is_read" json:"isRead"`
	RelatedID     *uuid.UUID       `db:"related_id" json:"relatedId,omitempty"`
	RelatedType   *string          `db:"related_type" json:"relatedType,omitempty"`
	RelatedUserID *uuid.UUID       `db:"related_user_id" json:"relatedUserId,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
}
