package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RolePlayer    Role = "player"
)

// CanManageBrackets reports whether the role may generate, resolve or delete brackets.
func (r Role) CanManageBrackets() bool {
	return r == RoleAdmin || r == RoleOrganizer
}

type User struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

type Team struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CaptainID uuid.UUID `db:"captain_id"`
	CreatedAt time.Time `db:"created_at"`
}

type MemberStatus string

const (
	MemberActive  MemberStatus = "member"
	MemberInvited MemberStatus = "invited"
)

type TeamMember struct {
	TeamID uuid.UUID    `db:"team_id"`
	UserID uuid.UUID    `db:"user_id"`
	Status MemberStatus `db:"status"`
}
