package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcBracketSize(t *testing.T) {
	testCases := []struct {
		count    int
		expected int
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {8, 8}, {9, 16}, {17, 32},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, calcBracketSize(tc.count), "count %d", tc.count)
	}
}

func TestGenerateRound1SeedOrder(t *testing.T) {
	testCases := []struct {
		name        string
		bracketSize int
		expected    [][2]int
	}{
		{
			name:        "2 slots",
			bracketSize: 2,
			expected:    [][2]int{{0, 1}},
		},
		{
			name:        "4 slots",
			bracketSize: 4,
			expected:    [][2]int{{0, 3}, {1, 2}},
		},
		{
			name:        "8 slots",
			bracketSize: 8,
			expected:    [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := generateRound1Pairs(tc.bracketSize)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestBuildSingleElimBracketShape(t *testing.T) {
	for n := 2; n <= 33; n++ {
		seeded := make([]uuid.UUID, n)
		for i := range seeded {
			seeded[i] = uuid.New()
		}

		matches := buildSingleElimBracket(uuid.New(), bracket.TeamKind, seeded)
		capacity := calcBracketSize(n)

		require.Len(t, matches, capacity-1, "n=%d", n)

		perRound := map[int]int{}
		byes := 0
		placed := map[uuid.UUID]bool{}
		for _, m := range matches {
			perRound[m.RoundNumber]++
			assert.Equal(t, bracket.TeamKind, m.Participant1Kind)
			assert.Equal(t, bracket.TeamKind, m.Participant2Kind)
			assert.Equal(t, bracket.MatchScheduled, m.Status)

			if m.RoundNumber == 1 {
				require.NotNil(t, m.Participant1ID, "n=%d match %d has an empty first slot", n, m.MatchNumber)
				placed[*m.Participant1ID] = true
				if m.Participant2ID == nil {
					byes++
					assert.True(t, m.IsBye)
				} else {
					placed[*m.Participant2ID] = true
				}
				continue
			}
			assert.Nil(t, m.Participant1ID)
			assert.Nil(t, m.Participant2ID)
		}

		assert.Equal(t, capacity/2, perRound[1], "n=%d", n)
		for r := 1; capacity>>r >= 1; r++ {
			assert.Equal(t, capacity>>r, perRound[r], "n=%d round %d", n, r)
		}
		assert.Equal(t, capacity-n, byes, "n=%d", n)
		assert.Len(t, placed, n, "n=%d every participant is placed exactly once", n)
	}
}

func TestGenerateBracketFiveTeams(t *testing.T) {
	f := newFixture(t)
	tournament, _ := f.teamTournament(5)

	kind, ids, err := NewParticipantResolver(f.db, f.stores.Tournaments).ResolveParticipants(f.ctx, tournament.ID)
	require.NoError(t, err)
	require.Equal(t, bracket.TeamKind, kind)
	require.Len(t, ids, 5)

	perm := NewSeededShuffler(7).Perm(5)
	seeded := make([]uuid.UUID, 5)
	for i, j := range perm {
		seeded[i] = ids[j]
	}

	publisher := &recordingPublisher{}
	result, err := NewBracketService(f.db, f.stores, NewSeededShuffler(7), publisher).GenerateBracket(f.ctx, tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, &GenerateResult{MatchCount: 7, ByeCount: 3}, result)
	assert.Equal(t, bracket.TournamentInProgress, f.tournamentStatus(tournament.ID))
	assert.Equal(t, []string{ReasonBracketGenerated}, publisher.reasons)

	// Seeds for 8 slots pair up as (0,7) (3,4) (1,6) (2,5); seeds 5-7 do not exist
	r1 := []bracket.Match{
		f.matchAt(tournament.ID, 1, 1),
		f.matchAt(tournament.ID, 1, 2),
		f.matchAt(tournament.ID, 1, 3),
		f.matchAt(tournament.ID, 1, 4),
	}
	for _, i := range []int{0, 2, 3} {
		assert.True(t, r1[i].IsBye, "match %d", i+1)
		assert.Equal(t, bracket.MatchFinished, r1[i].Status)
		assert.Nil(t, r1[i].Participant2ID)
		require.NotNil(t, r1[i].WinnerID)
		assert.Equal(t, *r1[i].Participant1ID, *r1[i].WinnerID)
	}
	assert.Equal(t, seeded[0], *r1[0].Participant1ID)
	assert.Equal(t, seeded[1], *r1[2].Participant1ID)
	assert.Equal(t, seeded[2], *r1[3].Participant1ID)

	assert.False(t, r1[1].IsBye)
	assert.Equal(t, bracket.MatchScheduled, r1[1].Status)
	assert.Equal(t, seeded[3], *r1[1].Participant1ID)
	assert.Equal(t, seeded[4], *r1[1].Participant2ID)

	r2m1 := f.matchAt(tournament.ID, 2, 1)
	require.NotNil(t, r2m1.Participant1ID)
	assert.Equal(t, seeded[0], *r2m1.Participant1ID)
	assert.Nil(t, r2m1.Participant2ID, "waits for the real round 1 match")

	r2m2 := f.matchAt(tournament.ID, 2, 2)
	require.True(t, r2m2.HasBothParticipants())
	assert.Equal(t, seeded[1], *r2m2.Participant1ID)
	assert.Equal(t, seeded[2], *r2m2.Participant2ID)

	final := f.matchAt(tournament.ID, 3, 1)
	assert.Nil(t, final.Participant1ID)
	assert.Nil(t, final.Participant2ID)
}

func TestGenerateBracketSameSeedSamePlacement(t *testing.T) {
	f := newFixture(t)
	tournament, _ := f.individualTournament(6)
	svc := NewBracketService(f.db, f.stores, NewSeededShuffler(99), nil)

	_, err := svc.GenerateBracket(f.ctx, tournament.ID)
	require.NoError(t, err)
	first := f.matchAt(tournament.ID, 1, 2)

	require.NoError(t, svc.DeleteBracket(f.ctx, tournament.ID))

	_, err = NewBracketService(f.db, f.stores, NewSeededShuffler(99), nil).GenerateBracket(f.ctx, tournament.ID)
	require.NoError(t, err)
	second := f.matchAt(tournament.ID, 1, 2)

	assert.Equal(t, first.Participant1ID, second.Participant1ID)
	assert.Equal(t, first.Participant2ID, second.Participant2ID)
	assert.Equal(t, bracket.IndividualKind, second.Participant1Kind)
}

func TestGenerateBracketFailures(t *testing.T) {
	f := newFixture(t)
	svc := NewBracketService(f.db, f.stores, NewSeededShuffler(1), nil)

	t.Run("missing tournament", func(t *testing.T) {
		_, err := svc.GenerateBracket(f.ctx, uuid.New())
		assert.ErrorIs(t, err, ErrTournamentNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("one participant", func(t *testing.T) {
		tournament, _ := f.teamTournament(1)
		_, err := svc.GenerateBracket(f.ctx, tournament.ID)
		assert.ErrorIs(t, err, ErrNotEnoughParticipants)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, bracket.TournamentRegistration, f.tournamentStatus(tournament.ID))
	})

	t.Run("unconfirmed registrations are ignored", func(t *testing.T) {
		tournament, _ := f.teamTournament(1)
		team, _ := f.team(0)
		require.NoError(t, f.stores.Tournaments.RegisterTeam(f.ctx, tournament.ID, team.ID, "pending"))

		_, err := svc.GenerateBracket(f.ctx, tournament.ID)
		assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	})

	t.Run("second generation conflicts", func(t *testing.T) {
		tournament, _ := f.teamTournament(4)
		_, err := svc.GenerateBracket(f.ctx, tournament.ID)
		require.NoError(t, err)

		_, err = svc.GenerateBracket(f.ctx, tournament.ID)
		assert.ErrorIs(t, err, ErrBracketExists)
		assert.ErrorIs(t, err, ErrConflict)

		matches, err := f.stores.Matches.GetMatches(f.ctx, tournament.ID)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
	})
}

func TestGenerateBracketConcurrentCallsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	tournament, _ := f.teamTournament(6)
	svc := NewBracketService(f.db, f.stores, NewRandomShuffler(), nil)

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.GenerateBracket(f.ctx, tournament.ID)
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)

	matches, err := f.stores.Matches.GetMatches(f.ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 7)
}

func TestDeleteBracket(t *testing.T) {
	f := newFixture(t)
	publisher := &recordingPublisher{}
	svc := NewBracketService(f.db, f.stores, NewSeededShuffler(3), publisher)

	t.Run("no bracket", func(t *testing.T) {
		tournament, _ := f.teamTournament(2)
		assert.ErrorIs(t, svc.DeleteBracket(f.ctx, tournament.ID), ErrBracketNotFound)
		assert.ErrorIs(t, svc.DeleteBracket(f.ctx, uuid.New()), ErrBracketNotFound)
	})

	t.Run("removes matches and results and reopens registration", func(t *testing.T) {
		tournament, captains := f.teamTournament(2)
		_, err := svc.GenerateBracket(f.ctx, tournament.ID)
		require.NoError(t, err)

		final := f.matchAt(tournament.ID, 1, 1)
		_, err = NewMatchService(f.db, f.stores, nil).ReportResult(f.ctx, f.actor(captains[*final.Participant1ID]), ReportInput{
			MatchID: final.ID, ScoreA: 2, ScoreB: 1,
		})
		require.NoError(t, err)

		publisher.reasons = nil
		require.NoError(t, svc.DeleteBracket(f.ctx, tournament.ID))
		assert.Equal(t, []string{ReasonBracketDeleted}, publisher.reasons)

		matches, err := f.stores.Matches.GetMatches(f.ctx, tournament.ID)
		require.NoError(t, err)
		assert.Empty(t, matches)

		results, err := f.stores.Results.GetResultsForTournament(f.ctx, tournament.ID)
		require.NoError(t, err)
		assert.Empty(t, results)

		assert.Equal(t, bracket.TournamentRegistration, f.tournamentStatus(tournament.ID))

		_, err = svc.GenerateBracket(f.ctx, tournament.ID)
		assert.NoError(t, err, "a deleted bracket can be generated again")
	})
}
