package bracket

import (
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/google/uuid"
)

type ParticipantKind string

const (
	TeamKind       ParticipantKind = "team"
	IndividualKind ParticipantKind = "individual"
)

const (
	UnknownName = "Unknown"
	TBAName     = "TBA"
)

// Directory answers identity lookups for participants. Implementations are
// loaded up front, so lookups never touch the database.
type Directory interface {
	Team(id uuid.UUID) (*users.Team, bool)
	User(id uuid.UUID) (*users.User, bool)
	// Members returns the confirmed roster of a team, captain included.
	Members(teamID uuid.UUID) []uuid.UUID
}

// Participant is either a TeamParticipant or an IndividualParticipant.
type Participant interface {
	ID() uuid.UUID
	Kind() ParticipantKind
	// Name is the display name, or UnknownName when the entity no longer exists.
	Name(dir Directory) string
	// CaptainID is the user allowed to act for the participant.
	CaptainID(dir Directory) (uuid.UUID, bool)
	// Recipients are the users notified about the participant's matches.
	Recipients(dir Directory) []uuid.UUID
}

// NewParticipant builds the variant for kind, or returns nil when id is nil.
func NewParticipant(kind ParticipantKind, id *uuid.UUID) Participant {
	if id == nil {
		return nil
	}
	if kind == TeamKind {
		return TeamParticipant(*id)
	}
	return IndividualParticipant(*id)
}

// Controls reports whether userID acts for p.
func Controls(p Participant, userID uuid.UUID, dir Directory) bool {
	if p == nil {
		return false
	}
	captain, ok := p.CaptainID(dir)
	return ok && captain == userID
}

type TeamParticipant uuid.UUID

func (t TeamParticipant) ID() uuid.UUID         { return uuid.UUID(t) }
func (t TeamParticipant) Kind() ParticipantKind { return TeamKind }

func (t TeamParticipant) Name(dir Directory) string {
	if team, ok := dir.Team(t.ID()); ok {
		return team.Name
	}
	return UnknownName
}

func (t TeamParticipant) CaptainID(dir Directory) (uuid.UUID, bool) {
	team, ok := dir.Team(t.ID())
	if !ok {
		return uuid.Nil, false
	}
	return team.CaptainID, true
}

func (t TeamParticipant) Recipients(dir Directory) []uuid.UUID {
	members := dir.Members(t.ID())
	if len(members) > 0 {
		return members
	}
	if captain, ok := t.CaptainID(dir); ok {
		return []uuid.UUID{captain}
	}
	return nil
}

type IndividualParticipant uuid.UUID

func (u IndividualParticipant) ID() uuid.UUID         { return uuid.UUID(u) }
func (u IndividualParticipant) Kind() ParticipantKind { return IndividualKind }

func (u IndividualParticipant) Name(dir Directory) string {
	if user, ok := dir.User(u.ID()); ok {
		return user.Username
	}
	return UnknownName
}

func (u IndividualParticipant) CaptainID(Directory) (uuid.UUID, bool) {
	return u.ID(), true
}

func (u IndividualParticipant) Recipients(Directory) []uuid.UUID {
	return []uuid.UUID{u.ID()}
}
