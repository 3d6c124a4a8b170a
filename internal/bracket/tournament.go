package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentInProgress   TournamentStatus = "in_progress"
	TournamentFinished     TournamentStatus = "finished"
)

// RegistrationKind decides whether a tournament is played by teams or by individual users.
type RegistrationKind string

const (
	TeamRegistration       RegistrationKind = "team"
	IndividualRegistration RegistrationKind = "individual"
)

// ParticipantKind returns the slot kind used by matches of this tournament.
func (k RegistrationKind) ParticipantKind() ParticipantKind {
	if k == TeamRegistration {
		return TeamKind
	}
	return IndividualKind
}

type Tournament struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	OrganizerID      uuid.UUID        `db:"organizer_id" json:"organizerId"`
	Name             string           `db:"name" json:"name"`
	RegistrationKind RegistrationKind `db:"registration_kind" json:"registrationKind"`
	Status           TournamentStatus `db:"status" json:"status"`
	MaxParticipants  int              `db:"max_participants" json:"maxParticipants"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
}

// RegistrationConfirmed is the registration status counted when seeding a bracket.
const RegistrationConfirmed = "confirmed"
