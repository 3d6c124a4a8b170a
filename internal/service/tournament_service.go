package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/evidence"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/AdamBeresnev/esports-tournament/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type TournamentService struct {
	db     *sqlx.DB
	stores *store.Stores
}

func NewTournamentService(db *sqlx.DB, stores *store.Stores) *TournamentService {
	return &TournamentService{db: db, stores: stores}
}

type SlotView struct {
	ID        *uuid.UUID              `json:"id"`
	Kind      bracket.ParticipantKind `json:"kind"`
	Name      string                  `json:"name"`
	CaptainID *uuid.UUID              `json:"captainId"`
	IsWinner  bool                    `json:"isWinner"`
}

type PendingResultView struct {
	ID          uuid.UUID      `json:"id"`
	ScoreA      int            `json:"scoreA"`
	ScoreB      int            `json:"scoreB"`
	ReportedBy  uuid.UUID      `json:"reportedBy"`
	EvidenceURL *string        `json:"evidenceUrl"`
	Evidence    *evidence.Link `json:"evidence,omitempty"`
	ReportedAt  time.Time      `json:"reportedAt"`
}

type MatchView struct {
	ID            uuid.UUID                `json:"id"`
	RoundNumber   int                      `json:"roundNumber"`
	MatchNumber   int                      `json:"matchNumber"`
	Status        bracket.MatchStatus      `json:"status"`
	IsBye         bool                     `json:"isBye"`
	Participant1  SlotView                 `json:"participant1"`
	Participant2  SlotView                 `json:"participant2"`
	WinnerID      *uuid.UUID               `json:"winnerId"`
	WinnerKind    *bracket.ParticipantKind `json:"winnerKind"`
	ScoreA        *int                     `json:"scoreA"`
	ScoreB        *int                     `json:"scoreB"`
	PendingResult *PendingResultView       `json:"pendingResult"`
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := s.stores.Tournaments.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return tournament, nil
}

// GetBracket returns the display-ready bracket ordered by round and match number.
// A tournament without matches yields an empty list.
func (s *TournamentService) GetBracket(ctx context.Context, tournamentID uuid.UUID) ([]MatchView, error) {
	matches, err := s.stores.Matches.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	if len(matches) == 0 {
		return []MatchView{}, nil
	}

	var participants []bracket.Participant
	for i := range matches {
		participants = append(participants, matches[i].Slot(1), matches[i].Slot(2))
	}
	teamIDs, userIDs := splitParticipants(participants...)

	var (
		teams   []users.Team
		found   []users.User
		results []bracket.MatchResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.stores.Users.TeamsByIDs(gctx, s.db, teamIDs)
		return err
	})
	g.Go(func() error {
		var err error
		found, err = s.stores.Users.UsersByIDs(gctx, s.db, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		results, err = s.stores.Results.GetResultsForTournament(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load bracket details: %w", err)
	}

	dir := newDirectory()
	dir.addTeams(teams)
	dir.addUsers(found)

	byMatch := make(map[uuid.UUID][]bracket.MatchResult)
	for _, r := range results {
		byMatch[r.MatchID] = append(byMatch[r.MatchID], r)
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		views = append(views, buildMatchView(&matches[i], byMatch[matches[i].ID], dir))
	}
	return views, nil
}

// buildMatchView expects results ordered by report time.
func buildMatchView(m *bracket.Match, results []bracket.MatchResult, dir bracket.Directory) MatchView {
	view := MatchView{
		ID:           m.ID,
		RoundNumber:  m.RoundNumber,
		MatchNumber:  m.MatchNumber,
		Status:       m.Status,
		IsBye:        m.IsBye,
		Participant1: slotView(m, 1, dir),
		Participant2: slotView(m, 2, dir),
		WinnerID:     m.WinnerID,
		WinnerKind:   m.WinnerKind,
	}

	var final, pending *bracket.MatchResult
	for i := range results {
		switch {
		case results[i].ResultStatus.IsFinal():
			final = &results[i]
		case results[i].ResultStatus == bracket.ResultPending:
			pending = &results[i]
		}
	}

	if m.Status == bracket.MatchFinished {
		switch {
		case final != nil:
			view.ScoreA, view.ScoreB = utils.Ptr(final.ScoreA), utils.Ptr(final.ScoreB)
		case m.WinnerSlot() == 1:
			view.ScoreA, view.ScoreB = utils.Ptr(1), utils.Ptr(0)
		case m.WinnerSlot() == 2:
			view.ScoreA, view.ScoreB = utils.Ptr(0), utils.Ptr(1)
		}
		return view
	}

	if pending != nil {
		view.Status = bracket.MatchPending
		view.PendingResult = &PendingResultView{
			ID:          pending.ID,
			ScoreA:      pending.ScoreA,
			ScoreB:      pending.ScoreB,
			ReportedBy:  pending.ReportedBy,
			EvidenceURL: pending.EvidenceURL,
			Evidence:    evidence.Classify(pending.EvidenceURL),
			ReportedAt:  pending.ReportedAt,
		}
	}
	return view
}

func slotView(m *bracket.Match, slot int, dir bracket.Directory) SlotView {
	p := m.Slot(slot)
	if p == nil {
		kind := m.Participant1Kind
		if slot == 2 {
			kind = m.Participant2Kind
		}
		return SlotView{Kind: kind, Name: bracket.TBAName}
	}

	view := SlotView{
		ID:       utils.Ptr(p.ID()),
		Kind:     p.Kind(),
		Name:     p.Name(dir),
		IsWinner: m.IsWinner(slot),
	}
	if captain, ok := p.CaptainID(dir); ok {
		view.CaptainID = &captain
	}
	return view
}
