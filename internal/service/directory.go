package service

import (
	"context"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// directory is an in-memory bracket.Directory filled from the user store.
type directory struct {
	teams   map[uuid.UUID]users.Team
	users   map[uuid.UUID]users.User
	members map[uuid.UUID][]uuid.UUID
}

func newDirectory() *directory {
	return &directory{
		teams:   make(map[uuid.UUID]users.Team),
		users:   make(map[uuid.UUID]users.User),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (d *directory) Team(id uuid.UUID) (*users.Team, bool) {
	t, ok := d.teams[id]
	return &t, ok
}

func (d *directory) User(id uuid.UUID) (*users.User, bool) {
	u, ok := d.users[id]
	return &u, ok
}

func (d *directory) Members(teamID uuid.UUID) []uuid.UUID {
	return d.members[teamID]
}

func (d *directory) addTeams(teams []users.Team) {
	for _, t := range teams {
		d.teams[t.ID] = t
	}
}

func (d *directory) addUsers(us []users.User) {
	for _, u := range us {
		d.users[u.ID] = u
	}
}

// addMembers builds rosters with the captain first; addTeams must run before.
func (d *directory) addMembers(members []users.TeamMember) {
	for id, t := range d.teams {
		d.members[id] = []uuid.UUID{t.CaptainID}
	}
	for _, m := range members {
		if t, ok := d.teams[m.TeamID]; ok && t.CaptainID == m.UserID {
			continue
		}
		d.members[m.TeamID] = append(d.members[m.TeamID], m.UserID)
	}
}

// splitParticipants separates team ids from user ids, skipping empty slots.
func splitParticipants(ps ...bracket.Participant) (teamIDs, userIDs []uuid.UUID) {
	seen := make(map[uuid.UUID]bool)
	for _, p := range ps {
		if p == nil || seen[p.ID()] {
			continue
		}
		seen[p.ID()] = true
		if p.Kind() == bracket.TeamKind {
			teamIDs = append(teamIDs, p.ID())
		} else {
			userIDs = append(userIDs, p.ID())
		}
	}
	return teamIDs, userIDs
}

// loadDirectory reads what is needed to name, authorize and notify the given participants.
func loadDirectory(ctx context.Context, q sqlx.ExtContext, us *store.UserStore, withMembers bool, ps ...bracket.Participant) (*directory, error) {
	dir := newDirectory()
	teamIDs, userIDs := splitParticipants(ps...)

	teams, err := us.TeamsByIDs(ctx, q, teamIDs)
	if err != nil {
		return nil, err
	}
	dir.addTeams(teams)

	found, err := us.UsersByIDs(ctx, q, userIDs)
	if err != nil {
		return nil, err
	}
	dir.addUsers(found)

	if withMembers && len(teamIDs) > 0 {
		members, err := us.ActiveMembers(ctx, q, teamIDs)
		if err != nil {
			return nil, err
		}
		dir.addMembers(members)
	}

	return dir, nil
}
