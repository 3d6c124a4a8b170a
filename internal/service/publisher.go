package service

import (
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/google/uuid"
)

// Publisher is told about every committed bracket change.
type Publisher interface {
	PublishBracketUpdate(tournamentID uuid.UUID, reason string)
}

const (
	ReasonBracketGenerated = "bracket_generated"
	ReasonBracketDeleted   = "bracket_deleted"
	ReasonResultReported   = "result_reported"
	ReasonResultConfirmed  = "result_confirmed"
	ReasonResultDisputed   = "result_disputed"
	ReasonMatchResolved    = "match_resolved"
)

type nopPublisher struct{}

func (nopPublisher) PublishBracketUpdate(uuid.UUID, string) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   users.Role
}
