package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	"github.com/jmoiron/sqlx"
)

// Advancer finishes matches and moves winners through the bracket tree.
type Advancer struct {
	stores *store.Stores
	now    func() time.Time
}

func NewAdvancer(stores *store.Stores) *Advancer {
	return &Advancer{stores: stores, now: func() time.Time { return time.Now().UTC() }}
}

// Finalize marks match finished for the higher score and places the winner in the
// downstream slot, or finishes the tournament when match is the final. Win and loss
// notifications are queued when notify is set and the match had an opponent.
func (a *Advancer) Finalize(ctx context.Context, tx *sqlx.Tx, match *bracket.Match, scoreA, scoreB int, notify bool) error {
	winnerSlot, loserSlot := 1, 2
	winnerScore, loserScore := scoreA, scoreB
	if scoreA <= scoreB {
		winnerSlot, loserSlot = 2, 1
		winnerScore, loserScore = scoreB, scoreA
	}

	winner := match.Slot(winnerSlot)
	if winner == nil {
		return ErrMissingParticipants
	}
	loser := match.Slot(loserSlot)

	if err := a.stores.Matches.FinishMatch(ctx, tx, match.ID, winner); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	winnerID, winnerKind := winner.ID(), winner.Kind()
	match.Status = bracket.MatchFinished
	match.WinnerID = &winnerID
	match.WinnerKind = &winnerKind

	final := false
	nextRound, nextNumber, slot := bracket.NextPosition(match.RoundNumber, match.MatchNumber)
	next, err := a.stores.Matches.GetMatchAt(ctx, tx, match.TournamentID, nextRound, nextNumber)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// If there is no next match, the tournament is over
		final = true
		if err := a.stores.Tournaments.UpdateTournamentStatusTx(ctx, tx, match.TournamentID, bracket.TournamentFinished); err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to get next match: %w", err)
	default:
		if err := a.stores.Matches.FillSlot(ctx, tx, next.ID, slot, winner); err != nil {
			return fmt.Errorf("failed to update next match: %w", err)
		}
	}

	if !notify || loser == nil {
		return nil
	}

	dir, err := loadDirectory(ctx, tx, a.stores.Users, true, winner, loser)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}

	out := newOutbox(a.now())
	out.add(winner.Recipients(dir), bracket.NotificationMatchWon, "Match won",
		fmt.Sprintf("You won against %s (%d-%d) in round %d.", loser.Name(dir), winnerScore, loserScore, match.RoundNumber),
		match.ID, bracket.RelatedMatch, nil)
	out.add(loser.Recipients(dir), bracket.NotificationMatchLost, "Match lost",
		fmt.Sprintf("You lost to %s (%d-%d) in round %d.", winner.Name(dir), loserScore, winnerScore, match.RoundNumber),
		match.ID, bracket.RelatedMatch, nil)
	if final {
		out.add(winner.Recipients(dir), bracket.NotificationTournamentWon, "Tournament won",
			fmt.Sprintf("%s won the tournament.", winner.Name(dir)),
			match.TournamentID, bracket.RelatedTournament, nil)
	}

	if err := a.stores.Notifications.CreateNotifications(ctx, tx, out.notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}
