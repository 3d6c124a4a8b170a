package store

import (
	"context"

	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery = "SELECT * FROM users WHERE id = ?"
	createUserQuery = `
		INSERT INTO users (id, username, email, role) VALUES
		(:id, :username, :email, :role)
	`
	createTeamQuery = `
		INSERT INTO teams (id, name, captain_id) VALUES
		(:id, :name, :captain_id)
	`
	addTeamMemberQuery = `
		INSERT INTO team_members (team_id, user_id, status) VALUES
		(:team_id, :user_id, :status)
	`
	usersByIDsQuery  = "SELECT * FROM users WHERE id IN (?)"
	teamsByIDsQuery  = "SELECT * FROM teams WHERE id IN (?)"
	teamMembersQuery = "SELECT team_id, user_id, status FROM team_members WHERE team_id IN (?) AND status = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserQuery), id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return translateError(err)
}

func (s *UserStore) CreateTeam(ctx context.Context, team *users.Team) error {
	_, err := s.db.NamedExecContext(ctx, createTeamQuery, team)
	return translateError(err)
}

func (s *UserStore) AddTeamMember(ctx context.Context, member *users.TeamMember) error {
	_, err := s.db.NamedExecContext(ctx, addTeamMemberQuery, member)
	return translateError(err)
}

func (s *UserStore) UsersByIDs(ctx context.Context, q sqlx.ExtContext, ids []uuid.UUID) ([]users.User, error) {
	var out []users.User
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(usersByIDsQuery, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...)
	return out, err
}

func (s *UserStore) TeamsByIDs(ctx context.Context, q sqlx.ExtContext, ids []uuid.UUID) ([]users.Team, error) {
	var out []users.Team
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(teamsByIDsQuery, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...)
	return out, err
}

// ActiveMembers returns the confirmed members of the given teams.
func (s *UserStore) ActiveMembers(ctx context.Context, q sqlx.ExtContext, teamIDs []uuid.UUID) ([]users.TeamMember, error) {
	var out []users.TeamMember
	if len(teamIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(teamMembersQuery, uuidStrings(teamIDs), users.MemberActive)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...)
	return out, err
}
