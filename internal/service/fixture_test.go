package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/db"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a SQLite database file in a temp dir and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Connect(db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "Failed to connect to test DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database), "Failed to apply migrations")
	return database
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *sqlx.DB
	stores *store.Stores
	seq    int
}

func newFixture(t *testing.T) *fixture {
	database := setupTestDB(t)
	return &fixture{t: t, ctx: context.Background(), db: database, stores: store.NewStores(database)}
}

func (f *fixture) user(role users.Role) users.User {
	f.t.Helper()
	f.seq++
	u := users.User{
		ID:       uuid.New(),
		Username: fmt.Sprintf("player%d", f.seq),
		Email:    fmt.Sprintf("player%d@example.com", f.seq),
		Role:     role,
	}
	require.NoError(f.t, f.stores.Users.CreateUser(f.ctx, &u))
	return u
}

func (f *fixture) actor(u users.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// team creates a team led by a new captain with the given number of extra members.
func (f *fixture) team(extraMembers int) (users.Team, users.User) {
	f.t.Helper()
	captain := f.user(users.RolePlayer)
	f.seq++
	team := users.Team{ID: uuid.New(), Name: fmt.Sprintf("Team %d", f.seq), CaptainID: captain.ID}
	require.NoError(f.t, f.stores.Users.CreateTeam(f.ctx, &team))
	require.NoError(f.t, f.stores.Users.AddTeamMember(f.ctx, &users.TeamMember{TeamID: team.ID, UserID: captain.ID, Status: users.MemberActive}))
	for i := 0; i < extraMembers; i++ {
		member := f.user(users.RolePlayer)
		require.NoError(f.t, f.stores.Users.AddTeamMember(f.ctx, &users.TeamMember{TeamID: team.ID, UserID: member.ID, Status: users.MemberActive}))
	}
	return team, captain
}

func (f *fixture) tournament(kind bracket.RegistrationKind) bracket.Tournament {
	f.t.Helper()
	organizer := f.user(users.RoleOrganizer)
	tournament := bracket.Tournament{
		ID:               uuid.New(),
		OrganizerID:      organizer.ID,
		Name:             "Spring Cup",
		RegistrationKind: kind,
		Status:           bracket.TournamentRegistration,
		MaxParticipants:  16,
	}
	require.NoError(f.t, f.stores.Tournaments.CreateTournament(f.ctx, f.db, &tournament))
	return tournament
}

// teamTournament creates a team tournament with n confirmed teams and returns the captains by team id.
func (f *fixture) teamTournament(n int) (bracket.Tournament, map[uuid.UUID]users.User) {
	f.t.Helper()
	tournament := f.tournament(bracket.TeamRegistration)
	captains := make(map[uuid.UUID]users.User, n)
	for i := 0; i < n; i++ {
		team, captain := f.team(1)
		require.NoError(f.t, f.stores.Tournaments.RegisterTeam(f.ctx, tournament.ID, team.ID, bracket.RegistrationConfirmed))
		captains[team.ID] = captain
	}
	return tournament, captains
}

// individualTournament creates an individual tournament with n confirmed players keyed by id.
func (f *fixture) individualTournament(n int) (bracket.Tournament, map[uuid.UUID]users.User) {
	f.t.Helper()
	tournament := f.tournament(bracket.IndividualRegistration)
	players := make(map[uuid.UUID]users.User, n)
	for i := 0; i < n; i++ {
		player := f.user(users.RolePlayer)
		require.NoError(f.t, f.stores.Tournaments.RegisterUser(f.ctx, tournament.ID, player.ID, bracket.RegistrationConfirmed))
		players[player.ID] = player
	}
	return tournament, players
}

func (f *fixture) generate(tournamentID uuid.UUID, seed uint64) *GenerateResult {
	f.t.Helper()
	result, err := NewBracketService(f.db, f.stores, NewSeededShuffler(seed), nil).GenerateBracket(f.ctx, tournamentID)
	require.NoError(f.t, err)
	return result
}

func (f *fixture) matchAt(tournamentID uuid.UUID, round, number int) bracket.Match {
	f.t.Helper()
	m, err := f.stores.Matches.GetMatchAt(f.ctx, f.db, tournamentID, round, number)
	require.NoError(f.t, err)
	return *m
}

func (f *fixture) tournamentStatus(id uuid.UUID) bracket.TournamentStatus {
	f.t.Helper()
	tournament, err := f.stores.Tournaments.GetTournament(f.ctx, id)
	require.NoError(f.t, err)
	return tournament.Status
}

func (f *fixture) notificationsOf(userID uuid.UUID) []bracket.Notification {
	f.t.Helper()
	notifications, err := f.stores.Notifications.ListForUser(f.ctx, userID)
	require.NoError(f.t, err)
	return notifications
}

func notificationTypes(notifications []bracket.Notification) []bracket.NotificationType {
	types := make([]bracket.NotificationType, 0, len(notifications))
	for _, n := range notifications {
		types = append(types, n.Type)
	}
	return types
}

// recordingPublisher remembers every published bracket update.
type recordingPublisher struct {
	reasons []string
}

func (p *recordingPublisher) PublishBracketUpdate(_ uuid.UUID, reason string) {
	p.reasons = append(p.reasons, reason)
}
