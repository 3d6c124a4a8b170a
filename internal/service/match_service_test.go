package service

import (
	"sync"
	"testing"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportAndAcceptAdvancesWinner(t *testing.T) {
	f := newFixture(t)
	tournament, captains := f.teamTournament(4)
	f.generate(tournament.ID, 1)

	publisher := &recordingPublisher{}
	svc := NewMatchService(f.db, f.stores, publisher)

	m := f.matchAt(tournament.ID, 1, 1)
	teamA, teamB := *m.Participant1ID, *m.Participant2ID
	captainA, captainB := captains[teamA], captains[teamB]

	result, err := svc.ReportResult(f.ctx, f.actor(captainA), ReportInput{
		MatchID:     m.ID,
		ScoreA:      2,
		ScoreB:      1,
		EvidenceURL: "https://youtu.be/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, bracket.ResultPending, result.ResultStatus)
	assert.Equal(t, captainA.ID, result.ReportedBy)
	assert.Equal(t, bracket.MatchPending, f.matchAt(tournament.ID, 1, 1).Status)
	assert.Contains(t, notificationTypes(f.notificationsOf(captainB.ID)), bracket.NotificationResultReported)
	assert.NotContains(t, notificationTypes(f.notificationsOf(captainA.ID)), bracket.NotificationResultReported)

	accepted, err := svc.AcceptResult(f.ctx, f.actor(captainB), result.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.ResultConfirmed, accepted.ResultStatus)
	require.NotNil(t, accepted.ConfirmedBy)
	assert.Equal(t, captainB.ID, *accepted.ConfirmedBy)
	assert.NotNil(t, accepted.ConfirmedAt)

	finished := f.matchAt(tournament.ID, 1, 1)
	assert.Equal(t, bracket.MatchFinished, finished.Status)
	require.NotNil(t, finished.WinnerID)
	assert.Equal(t, teamA, *finished.WinnerID)
	assert.Equal(t, 1, finished.WinnerSlot())

	next := f.matchAt(tournament.ID, 2, 1)
	require.NotNil(t, next.Participant1ID)
	assert.Equal(t, teamA, *next.Participant1ID)
	assert.Nil(t, next.Participant2ID)
	assert.Equal(t, bracket.TournamentInProgress, f.tournamentStatus(tournament.ID))

	assert.Equal(t, []string{ReasonResultReported, ReasonResultConfirmed}, publisher.reasons)

	typesA := notificationTypes(f.notificationsOf(captainA.ID))
	assert.Contains(t, typesA, bracket.NotificationResultConfirmed)
	assert.Contains(t, typesA, bracket.NotificationMatchWon)
	assert.Contains(t, notificationTypes(f.notificationsOf(captainB.ID)), bracket.NotificationMatchLost)

	// Every confirmed member of a team hears about the outcome, not only the captain
	members, err := f.stores.Users.ActiveMembers(f.ctx, f.db, []uuid.UUID{teamA})
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, member := range members {
		assert.Contains(t, notificationTypes(f.notificationsOf(member.UserID)), bracket.NotificationMatchWon)
	}
}

func TestEightPlayerBracketRunsToChampion(t *testing.T) {
	f := newFixture(t)
	tournament, players := f.individualTournament(8)
	result := f.generate(tournament.ID, 42)
	assert.Equal(t, &GenerateResult{MatchCount: 7, ByeCount: 0}, result)

	svc := NewMatchService(f.db, f.stores, nil)
	winners := map[[2]int]uuid.UUID{}

	for round := 1; round <= 3; round++ {
		for number := 1; number <= 8>>round; number++ {
			m := f.matchAt(tournament.ID, round, number)
			require.True(t, m.HasBothParticipants(), "round %d match %d", round, number)
			if round > 1 {
				assert.Equal(t, winners[[2]int{round - 1, 2*number - 1}], *m.Participant1ID)
				assert.Equal(t, winners[[2]int{round - 1, 2 * number}], *m.Participant2ID)
			}

			// Odd matches go to slot 1, even matches to slot 2
			scoreA, scoreB := 2, 0
			want := *m.Participant1ID
			if number%2 == 0 {
				scoreA, scoreB = 1, 3
				want = *m.Participant2ID
			}

			reported, err := svc.ReportResult(f.ctx, f.actor(players[*m.Participant1ID]), ReportInput{
				MatchID: m.ID, ScoreA: scoreA, ScoreB: scoreB,
			})
			require.NoError(t, err)
			_, err = svc.AcceptResult(f.ctx, f.actor(players[*m.Participant2ID]), reported.ID)
			require.NoError(t, err)

			finished := f.matchAt(tournament.ID, round, number)
			require.NotNil(t, finished.WinnerID)
			assert.Equal(t, want, *finished.WinnerID)
			winners[[2]int{round, number}] = want
		}
	}

	assert.Equal(t, bracket.TournamentFinished, f.tournamentStatus(tournament.ID))

	champion := winners[[2]int{3, 1}]
	assert.Contains(t, notificationTypes(f.notificationsOf(champion)), bracket.NotificationTournamentWon)
	for id := range players {
		if id == champion {
			continue
		}
		assert.NotContains(t, notificationTypes(f.notificationsOf(id)), bracket.NotificationTournamentWon)
	}

	final := f.matchAt(tournament.ID, 3, 1)
	_, err := svc.ReportResult(f.ctx, f.actor(players[*final.Participant1ID]), ReportInput{MatchID: final.ID, ScoreA: 1, ScoreB: 0})
	assert.ErrorIs(t, err, ErrMatchFinished)
}

func TestReportResultValidation(t *testing.T) {
	f := newFixture(t)
	tournament, players := f.individualTournament(3)
	f.generate(tournament.ID, 5)
	svc := NewMatchService(f.db, f.stores, nil)

	// 3 players in 4 slots: round 1 match 1 is the bye, match 2 is played
	bye := f.matchAt(tournament.ID, 1, 1)
	played := f.matchAt(tournament.ID, 1, 2)
	final := f.matchAt(tournament.ID, 2, 1)
	require.True(t, bye.IsBye)
	require.True(t, played.HasBothParticipants())

	reporter := f.actor(players[*played.Participant1ID])
	opponent := f.actor(players[*played.Participant2ID])
	outsider := f.actor(f.user(users.RolePlayer))

	testCases := []struct {
		name  string
		actor Actor
		input ReportInput
		err   error
		kind  error
	}{
		{"negative score", reporter, ReportInput{MatchID: uuid.New(), ScoreA: -1, ScoreB: 2}, ErrNegativeScore, ErrBadRequest},
		{"unknown match", reporter, ReportInput{MatchID: uuid.New(), ScoreA: 1, ScoreB: 0}, ErrMatchNotFound, ErrNotFound},
		{"finished bye", reporter, ReportInput{MatchID: bye.ID, ScoreA: 1, ScoreB: 0}, ErrMatchFinished, ErrInvalidState},
		{"opponent not decided", reporter, ReportInput{MatchID: final.ID, ScoreA: 1, ScoreB: 0}, ErrMissingParticipants, ErrInvalidState},
		{"not a participant", outsider, ReportInput{MatchID: played.ID, ScoreA: 1, ScoreB: 0}, ErrNotParticipant, ErrForbidden},
		{"tied score", reporter, ReportInput{MatchID: played.ID, ScoreA: 2, ScoreB: 2}, ErrTiedScore, ErrInvalidState},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReportResult(f.ctx, tc.actor, tc.input)
			assert.ErrorIs(t, err, tc.err)
			assert.ErrorIs(t, err, tc.kind)
		})
	}

	t.Run("one pending result per match", func(t *testing.T) {
		_, err := svc.ReportResult(f.ctx, reporter, ReportInput{MatchID: played.ID, ScoreA: 3, ScoreB: 1})
		require.NoError(t, err)

		_, err = svc.ReportResult(f.ctx, opponent, ReportInput{MatchID: played.ID, ScoreA: 1, ScoreB: 3})
		assert.ErrorIs(t, err, ErrPendingResultExists)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestAcceptResultRejections(t *testing.T) {
	f := newFixture(t)
	tournament, players := f.individualTournament(2)
	f.generate(tournament.ID, 1)
	svc := NewMatchService(f.db, f.stores, nil)

	m := f.matchAt(tournament.ID, 1, 1)
	reporter := f.actor(players[*m.Participant1ID])
	opponent := f.actor(players[*m.Participant2ID])

	result, err := svc.ReportResult(f.ctx, reporter, ReportInput{MatchID: m.ID, ScoreA: 0, ScoreB: 2})
	require.NoError(t, err)

	_, err = svc.AcceptResult(f.ctx, reporter, result.ID)
	assert.ErrorIs(t, err, ErrSelfConfirmation)

	_, err = svc.AcceptResult(f.ctx, f.actor(f.user(users.RolePlayer)), result.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.AcceptResult(f.ctx, opponent, uuid.New())
	assert.ErrorIs(t, err, ErrResultNotFound)

	_, err = svc.AcceptResult(f.ctx, opponent, result.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentFinished, f.tournamentStatus(tournament.ID))
	assert.Contains(t, notificationTypes(f.notificationsOf(opponent.UserID)), bracket.NotificationTournamentWon)

	_, err = svc.AcceptResult(f.ctx, opponent, result.ID)
	assert.ErrorIs(t, err, ErrResultNotPending)
}

func TestDisputeResult(t *testing.T) {
	f := newFixture(t)
	tournament, captains := f.teamTournament(2)
	f.generate(tournament.ID, 1)
	publisher := &recordingPublisher{}
	svc := NewMatchService(f.db, f.stores, publisher)

	m := f.matchAt(tournament.ID, 1, 1)
	reporter := f.actor(captains[*m.Participant1ID])
	opponent := f.actor(captains[*m.Participant2ID])

	result, err := svc.ReportResult(f.ctx, reporter, ReportInput{MatchID: m.ID, ScoreA: 2, ScoreB: 0, Notes: "gg"})
	require.NoError(t, err)

	_, err = svc.DisputeResult(f.ctx, reporter, DisputeInput{ResultID: result.ID})
	assert.ErrorIs(t, err, ErrSelfDispute)

	_, err = svc.DisputeResult(f.ctx, f.actor(f.user(users.RolePlayer)), DisputeInput{ResultID: result.ID})
	assert.ErrorIs(t, err, ErrNotParticipant)

	disputed, err := svc.DisputeResult(f.ctx, opponent, DisputeInput{
		ResultID:    result.ID,
		Reason:      "we won the second map",
		EvidenceURL: "https://example.com/shot.png",
	})
	require.NoError(t, err)
	assert.Equal(t, bracket.ResultDisputed, disputed.ResultStatus)
	require.NotNil(t, disputed.Notes)
	assert.Equal(t, "gg\nDispute: we won the second map\nDispute evidence: https://example.com/shot.png", *disputed.Notes)
	assert.Equal(t, bracket.MatchDisputed, f.matchAt(tournament.ID, 1, 1).Status)

	assert.Contains(t, notificationTypes(f.notificationsOf(reporter.UserID)), bracket.NotificationResultDisputed)
	assert.Contains(t, notificationTypes(f.notificationsOf(tournament.OrganizerID)), bracket.NotificationResultDisputed)

	_, err = svc.DisputeResult(f.ctx, opponent, DisputeInput{ResultID: result.ID})
	assert.ErrorIs(t, err, ErrResultNotPending)
	_, err = svc.AcceptResult(f.ctx, opponent, result.ID)
	assert.ErrorIs(t, err, ErrResultNotPending)

	// A disputed result no longer blocks a fresh report
	_, err = svc.ReportResult(f.ctx, opponent, ReportInput{MatchID: m.ID, ScoreA: 1, ScoreB: 2})
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchPending, f.matchAt(tournament.ID, 1, 1).Status)

	assert.Equal(t, []string{ReasonResultReported, ReasonResultDisputed, ReasonResultReported}, publisher.reasons)
}

func TestDisputeNotes(t *testing.T) {
	assert.Equal(t, "Dispute: no reason given", *disputeNotes(nil, "  ", ""))
	assert.Equal(t, "Dispute: lag", *disputeNotes(new(string), "lag", " "))
}

func TestAdminResolve(t *testing.T) {
	f := newFixture(t)
	tournament, players := f.individualTournament(4)
	f.generate(tournament.ID, 8)
	svc := NewMatchService(f.db, f.stores, nil)
	admin := f.actor(f.user(users.RoleAdmin))

	m := f.matchAt(tournament.ID, 1, 2)
	player := f.actor(players[*m.Participant1ID])

	_, err := svc.AdminResolve(f.ctx, player, ResolveInput{MatchID: m.ID, ScoreA: 1, ScoreB: 0})
	assert.ErrorIs(t, err, ErrNotOrganizer)

	_, err = svc.AdminResolve(f.ctx, admin, ResolveInput{MatchID: m.ID, ScoreA: 1, ScoreB: -1})
	assert.ErrorIs(t, err, ErrNegativeScore)

	_, err = svc.AdminResolve(f.ctx, admin, ResolveInput{MatchID: m.ID, ScoreA: 1, ScoreB: 1})
	assert.ErrorIs(t, err, ErrTiedScore)

	_, err = svc.AdminResolve(f.ctx, admin, ResolveInput{MatchID: f.matchAt(tournament.ID, 2, 1).ID, ScoreA: 1, ScoreB: 0})
	assert.ErrorIs(t, err, ErrMissingParticipants)

	_, err = svc.AdminResolve(f.ctx, admin, ResolveInput{MatchID: uuid.New(), ScoreA: 1, ScoreB: 0})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = svc.ReportResult(f.ctx, player, ReportInput{MatchID: m.ID, ScoreA: 5, ScoreB: 0})
	require.NoError(t, err)

	resolved, err := svc.AdminResolve(f.ctx, admin, ResolveInput{MatchID: m.ID, ScoreA: 0, ScoreB: 3, Notes: "replay reviewed"})
	require.NoError(t, err)
	assert.Equal(t, bracket.ResultConfirmedByAdmin, resolved.ResultStatus)
	assert.Equal(t, admin.UserID, resolved.ReportedBy)

	results, err := f.stores.Results.GetResultsForTournament(f.ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, results, 1, "earlier reports are replaced")
	assert.Equal(t, resolved.ID, results[0].ID)

	finished := f.matchAt(tournament.ID, 1, 2)
	assert.Equal(t, bracket.MatchFinished, finished.Status)
	assert.Equal(t, *m.Participant2ID, *finished.WinnerID)
	assert.Equal(t, *m.Participant2ID, *f.matchAt(tournament.ID, 2, 1).Participant2ID)

	_, err = svc.AdminResolve(f.ctx, admin, ResolveInput{MatchID: m.ID, ScoreA: 3, ScoreB: 0})
	assert.ErrorIs(t, err, ErrMatchFinished)

	organizer := Actor{UserID: tournament.OrganizerID, Role: users.RoleOrganizer}
	other := f.matchAt(tournament.ID, 1, 1)
	_, err = svc.AdminResolve(f.ctx, organizer, ResolveInput{MatchID: other.ID, ScoreA: 2, ScoreB: 1})
	require.NoError(t, err)

	final := f.matchAt(tournament.ID, 2, 1)
	assert.True(t, final.HasBothParticipants())
	assert.Equal(t, *other.Participant1ID, *final.Participant1ID)
}

func TestConcurrentAcceptsFillBothSlots(t *testing.T) {
	f := newFixture(t)
	tournament, players := f.individualTournament(4)
	f.generate(tournament.ID, 11)
	svc := NewMatchService(f.db, f.stores, nil)

	type pending struct {
		resultID uuid.UUID
		acceptor Actor
		winner   uuid.UUID
	}
	var work []pending
	for number := 1; number <= 2; number++ {
		m := f.matchAt(tournament.ID, 1, number)
		result, err := svc.ReportResult(f.ctx, f.actor(players[*m.Participant1ID]), ReportInput{MatchID: m.ID, ScoreA: 2, ScoreB: 1})
		require.NoError(t, err)
		work = append(work, pending{result.ID, f.actor(players[*m.Participant2ID]), *m.Participant1ID})
	}

	errs := make([]error, len(work))
	var wg sync.WaitGroup
	for i, w := range work {
		wg.Add(1)
		go func(i int, w pending) {
			defer wg.Done()
			_, errs[i] = svc.AcceptResult(f.ctx, w.acceptor, w.resultID)
		}(i, w)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	final := f.matchAt(tournament.ID, 2, 1)
	require.True(t, final.HasBothParticipants())
	assert.Equal(t, work[0].winner, *final.Participant1ID)
	assert.Equal(t, work[1].winner, *final.Participant2ID)
}
