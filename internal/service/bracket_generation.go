package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	"github.com/AdamBeresnev/esports-tournament/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketGeneration struct {
	db        *sqlx.DB
	stores    *store.Stores
	resolver  *ParticipantResolver
	advancer  *Advancer
	shuffler  Shuffler
	publisher Publisher
}

func NewBracketService(db *sqlx.DB, stores *store.Stores, shuffler Shuffler, publisher Publisher) *BracketGeneration {
	if shuffler == nil {
		shuffler = NewRandomShuffler()
	}
	return &BracketGeneration{
		db:        db,
		stores:    stores,
		resolver:  NewParticipantResolver(db, stores.Tournaments),
		advancer:  NewAdvancer(stores),
		shuffler:  shuffler,
		publisher: publisherOrNop(publisher),
	}
}

type GenerateResult struct {
	MatchCount int `json:"matchCount"`
	ByeCount   int `json:"byeCount"`
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// generateRound1Pairs returns the seed pairing of round 1 in match order, so that
// seeds 0 and 1 can only meet in the final. Seeds >= the participant count are byes.
func generateRound1Pairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

// buildSingleElimBracket lays out every round of the tree and seeds round 1 from seeded.
// A round 1 match whose second seed does not exist is marked as a bye.
func buildSingleElimBracket(tournamentID uuid.UUID, kind bracket.ParticipantKind, seeded []uuid.UUID) []bracket.Match {
	bracketSize := calcBracketSize(len(seeded))
	totalRounds := int(math.Log2(float64(bracketSize)))
	pairs := generateRound1Pairs(bracketSize)

	matches := make([]bracket.Match, 0, bracketSize-1)
	for r := 1; r <= totalRounds; r++ {
		matchesInRound := bracketSize >> r

		for i := 0; i < matchesInRound; i++ {
			m := bracket.Match{
				ID:               uuid.New(),
				TournamentID:     tournamentID,
				RoundNumber:      r,
				MatchNumber:      i + 1,
				Participant1Kind: kind,
				Participant2Kind: kind,
				Status:           bracket.MatchScheduled,
			}

			if r == 1 {
				pair := pairs[i]
				if pair[0] < len(seeded) {
					m.Participant1ID = utils.Ptr(seeded[pair[0]])
				}
				if pair[1] < len(seeded) {
					m.Participant2ID = utils.Ptr(seeded[pair[1]])
				}
				m.IsBye = !m.HasBothParticipants()
			}

			matches = append(matches, m)
		}
	}

	return matches
}

// GenerateBracket seeds the confirmed participants in random order into a new
// single elimination bracket and advances bye winners into round 2.
func (s *BracketGeneration) GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (*GenerateResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.stores.Tournaments.LockTournament(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	existing, err := s.stores.Matches.CountMatches(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches: %w", err)
	}
	if existing > 0 {
		return nil, ErrBracketExists
	}

	kind, ids, err := s.resolver.resolve(ctx, tx, tournament)
	if err != nil {
		return nil, err
	}
	if len(ids) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	seeded := make([]uuid.UUID, len(ids))
	for i, j := range s.shuffler.Perm(len(ids)) {
		seeded[i] = ids[j]
	}

	matches := buildSingleElimBracket(tournamentID, kind, seeded)
	if err := s.stores.Matches.CreateMatches(ctx, tx, matches); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrBracketExists
		}
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	if err := s.stores.Tournaments.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentInProgress); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}

	byes := 0
	for i := range matches {
		if !matches[i].IsBye {
			continue
		}
		byes++
		if err := s.advancer.Finalize(ctx, tx, &matches[i], 1, 0, false); err != nil {
			return nil, fmt.Errorf("failed to advance bye: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("bracket generated", "tournament_id", tournamentID, "matches", len(matches), "byes", byes)
	s.publisher.PublishBracketUpdate(tournamentID, ReasonBracketGenerated)

	return &GenerateResult{MatchCount: len(matches), ByeCount: byes}, nil
}

// DeleteBracket removes all matches and results of a tournament and reopens its registration.
func (s *BracketGeneration) DeleteBracket(ctx context.Context, tournamentID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.stores.Tournaments.LockTournament(ctx, tx, tournamentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBracketNotFound
		}
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	deleted, err := s.stores.Matches.DeleteBracket(ctx, tx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	if deleted == 0 {
		return ErrBracketNotFound
	}

	if err := s.stores.Tournaments.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentRegistration); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("bracket deleted", "tournament_id", tournamentID, "matches", deleted)
	s.publisher.PublishBracketUpdate(tournamentID, ReasonBracketDeleted)
	return nil
}
