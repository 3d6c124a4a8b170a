package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	"github.com/AdamBeresnev/esports-tournament/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db        *sqlx.DB
	stores    *store.Stores
	advancer  *Advancer
	publisher Publisher
	now       func() time.Time
}

func NewMatchService(db *sqlx.DB, stores *store.Stores, publisher Publisher) *MatchService {
	return &MatchService{
		db:        db,
		stores:    stores,
		advancer:  NewAdvancer(stores),
		publisher: publisherOrNop(publisher),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type ReportInput struct {
	MatchID     uuid.UUID
	ScoreA      int
	ScoreB      int
	EvidenceURL string
	Notes       string
}

type DisputeInput struct {
	ResultID    uuid.UUID
	Reason      string
	EvidenceURL string
}

type ResolveInput struct {
	MatchID uuid.UUID
	ScoreA  int
	ScoreB  int
	Notes   string
}

func validateScores(a, b int) error {
	if a < 0 || b < 0 {
		return ErrNegativeScore
	}
	return nil
}

func (s *MatchService) lockMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	match, err := s.stores.Matches.LockMatch(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// lockResult returns a result together with its locked match. The result is read
// again after the lock so its status cannot change before the transaction ends.
func (s *MatchService) lockResult(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.MatchResult, *bracket.Match, error) {
	result, err := s.stores.Results.GetResultTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrResultNotFound
		}
		return nil, nil, fmt.Errorf("failed to get result: %w", err)
	}

	match, err := s.lockMatch(ctx, tx, result.MatchID)
	if err != nil {
		return nil, nil, err
	}

	result, err = s.stores.Results.GetResultTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrResultNotFound
		}
		return nil, nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, match, nil
}

// controlledSlot returns the slot the user acts for, or 0 when the user is not a participant.
func controlledSlot(match *bracket.Match, userID uuid.UUID, dir bracket.Directory) int {
	for _, slot := range []int{1, 2} {
		if bracket.Controls(match.Slot(slot), userID, dir) {
			return slot
		}
	}
	return 0
}

func opponentSlot(slot int) int {
	return 3 - slot
}

func captainsOf(dir bracket.Directory, ps ...bracket.Participant) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range ps {
		if p == nil {
			continue
		}
		if id, ok := p.CaptainID(dir); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ReportResult records a score reported by one side of a match and waits for the other side to accept it.
func (s *MatchService) ReportResult(ctx context.Context, actor Actor, in ReportInput) (*bracket.MatchResult, error) {
	if err := validateScores(in.ScoreA, in.ScoreB); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.lockMatch(ctx, tx, in.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status == bracket.MatchFinished {
		return nil, ErrMatchFinished
	}
	if !match.HasBothParticipants() {
		return nil, ErrMissingParticipants
	}

	dir, err := loadDirectory(ctx, tx, s.stores.Users, false, match.Slot(1), match.Slot(2))
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	slot := controlledSlot(match, actor.UserID, dir)
	if slot == 0 {
		return nil, ErrNotParticipant
	}

	if in.ScoreA == in.ScoreB {
		return nil, ErrTiedScore
	}

	pending, err := s.stores.Results.HasPendingResult(ctx, tx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending results: %w", err)
	}
	if pending {
		return nil, ErrPendingResultExists
	}

	now := s.now()
	result := &bracket.MatchResult{
		ID:           uuid.New(),
		MatchID:      match.ID,
		ScoreA:       in.ScoreA,
		ScoreB:       in.ScoreB,
		ReportedBy:   actor.UserID,
		ResultStatus: bracket.ResultPending,
		EvidenceURL:  utils.StringOrNil(in.EvidenceURL),
		Notes:        utils.StringOrNil(in.Notes),
		ReportedAt:   now,
	}
	if err := s.stores.Results.CreateResult(ctx, tx, result); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrPendingResultExists
		}
		return nil, fmt.Errorf("failed to create result: %w", err)
	}

	if err := s.stores.Matches.SetStatus(ctx, tx, match.ID, bracket.MatchPending); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	reporter := match.Slot(slot)
	out := newOutbox(now)
	out.add(captainsOf(dir, match.Slot(opponentSlot(slot))), bracket.NotificationResultReported, "Result reported",
		fmt.Sprintf("%s reported %d-%d for round %d match %d. Accept or dispute it.",
			reporter.Name(dir), in.ScoreA, in.ScoreB, match.RoundNumber, match.MatchNumber),
		result.ID, bracket.RelatedMatchResult, utils.Ptr(actor.UserID))
	if err := s.stores.Notifications.CreateNotifications(ctx, tx, out.notifications); err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("result reported", "match_id", match.ID, "result_id", result.ID, "reported_by", actor.UserID)
	s.publisher.PublishBracketUpdate(match.TournamentID, ReasonResultReported)
	return result, nil
}

// AcceptResult confirms a pending result on behalf of the other side and advances the winner.
func (s *MatchService) AcceptResult(ctx context.Context, actor Actor, resultID uuid.UUID) (*bracket.MatchResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, match, err := s.lockResult(ctx, tx, resultID)
	if err != nil {
		return nil, err
	}
	if result.ResultStatus != bracket.ResultPending {
		return nil, ErrResultNotPending
	}
	if result.ReportedBy == actor.UserID {
		return nil, ErrSelfConfirmation
	}

	dir, err := loadDirectory(ctx, tx, s.stores.Users, false, match.Slot(1), match.Slot(2))
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	if controlledSlot(match, actor.UserID, dir) == 0 {
		return nil, ErrNotParticipant
	}

	now := s.now()
	result.ResultStatus = bracket.ResultConfirmed
	result.ConfirmedBy = utils.Ptr(actor.UserID)
	result.ConfirmedAt = utils.Ptr(now)
	if err := s.stores.Results.UpdateResult(ctx, tx, result); err != nil {
		return nil, fmt.Errorf("failed to update result: %w", err)
	}

	out := newOutbox(now)
	out.add([]uuid.UUID{result.ReportedBy}, bracket.NotificationResultConfirmed, "Result confirmed",
		fmt.Sprintf("Your reported result %d-%d for round %d match %d was accepted.",
			result.ScoreA, result.ScoreB, match.RoundNumber, match.MatchNumber),
		result.ID, bracket.RelatedMatchResult, utils.Ptr(actor.UserID))
	if err := s.stores.Notifications.CreateNotifications(ctx, tx, out.notifications); err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	if err := s.advancer.Finalize(ctx, tx, match, result.ScoreA, result.ScoreB, true); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("result accepted", "match_id", match.ID, "result_id", result.ID, "confirmed_by", actor.UserID)
	s.publisher.PublishBracketUpdate(match.TournamentID, ReasonResultConfirmed)
	return result, nil
}

// DisputeResult rejects a pending result. The match then waits for an admin resolution or a new report.
func (s *MatchService) DisputeResult(ctx context.Context, actor Actor, in DisputeInput) (*bracket.MatchResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, match, err := s.lockResult(ctx, tx, in.ResultID)
	if err != nil {
		return nil, err
	}
	if result.ReportedBy == actor.UserID {
		return nil, ErrSelfDispute
	}
	if result.ResultStatus != bracket.ResultPending {
		return nil, ErrResultNotPending
	}

	dir, err := loadDirectory(ctx, tx, s.stores.Users, false, match.Slot(1), match.Slot(2))
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	slot := controlledSlot(match, actor.UserID, dir)
	if slot == 0 {
		return nil, ErrNotParticipant
	}

	result.ResultStatus = bracket.ResultDisputed
	result.Notes = disputeNotes(result.Notes, in.Reason, in.EvidenceURL)
	if err := s.stores.Results.UpdateResult(ctx, tx, result); err != nil {
		return nil, fmt.Errorf("failed to update result: %w", err)
	}
	if err := s.stores.Matches.SetStatus(ctx, tx, match.ID, bracket.MatchDisputed); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	tournament, err := s.stores.Tournaments.GetTournamentTx(ctx, tx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	out := newOutbox(s.now())
	out.add([]uuid.UUID{result.ReportedBy, tournament.OrganizerID}, bracket.NotificationResultDisputed, "Result disputed",
		fmt.Sprintf("%s disputed the result %d-%d for round %d match %d.",
			match.Slot(slot).Name(dir), result.ScoreA, result.ScoreB, match.RoundNumber, match.MatchNumber),
		result.ID, bracket.RelatedMatchResult, utils.Ptr(actor.UserID))
	if err := s.stores.Notifications.CreateNotifications(ctx, tx, out.notifications); err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("result disputed", "match_id", match.ID, "result_id", result.ID, "disputed_by", actor.UserID)
	s.publisher.PublishBracketUpdate(match.TournamentID, ReasonResultDisputed)
	return result, nil
}

func disputeNotes(existing *string, reason, evidenceURL string) *string {
	var lines []string
	if existing != nil && *existing != "" {
		lines = append(lines, *existing)
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		lines = append(lines, "Dispute: "+reason)
	} else {
		lines = append(lines, "Dispute: no reason given")
	}
	if evidenceURL = strings.TrimSpace(evidenceURL); evidenceURL != "" {
		lines = append(lines, "Dispute evidence: "+evidenceURL)
	}
	return utils.Ptr(strings.Join(lines, "\n"))
}

// AdminResolve replaces every result of a match with a final score set by an admin or organizer.
func (s *MatchService) AdminResolve(ctx context.Context, actor Actor, in ResolveInput) (*bracket.MatchResult, error) {
	if !actor.Role.CanManageBrackets() {
		return nil, ErrNotOrganizer
	}
	if err := validateScores(in.ScoreA, in.ScoreB); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.lockMatch(ctx, tx, in.MatchID)
	if err != nil {
		return nil, err
	}
	if match.Status == bracket.MatchFinished {
		return nil, ErrMatchFinished
	}
	if !match.HasBothParticipants() {
		return nil, ErrMissingParticipants
	}
	if in.ScoreA == in.ScoreB {
		return nil, ErrTiedScore
	}

	if err := s.stores.Results.DeleteResultsForMatch(ctx, tx, match.ID); err != nil {
		return nil, fmt.Errorf("failed to delete results: %w", err)
	}

	now := s.now()
	result := &bracket.MatchResult{
		ID:           uuid.New(),
		MatchID:      match.ID,
		ScoreA:       in.ScoreA,
		ScoreB:       in.ScoreB,
		ReportedBy:   actor.UserID,
		ConfirmedBy:  utils.Ptr(actor.UserID),
		ResultStatus: bracket.ResultConfirmedByAdmin,
		Notes:        utils.StringOrNil(in.Notes),
		ReportedAt:   now,
		ConfirmedAt:  utils.Ptr(now),
	}
	if err := s.stores.Results.CreateResult(ctx, tx, result); err != nil {
		return nil, fmt.Errorf("failed to create result: %w", err)
	}

	dir, err := loadDirectory(ctx, tx, s.stores.Users, false, match.Slot(1), match.Slot(2))
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	out := newOutbox(now)
	out.add(captainsOf(dir, match.Slot(1), match.Slot(2)), bracket.NotificationResultConfirmed, "Result set by admin",
		fmt.Sprintf("An admin set the result of round %d match %d to %d-%d.",
			match.RoundNumber, match.MatchNumber, in.ScoreA, in.ScoreB),
		result.ID, bracket.RelatedMatchResult, utils.Ptr(actor.UserID))
	if err := s.stores.Notifications.CreateNotifications(ctx, tx, out.notifications); err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	if err := s.advancer.Finalize(ctx, tx, match, in.ScoreA, in.ScoreB, true); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("match resolved by admin", "match_id", match.ID, "result_id", result.ID, "admin_id", actor.UserID)
	s.publisher.PublishBracketUpdate(match.TournamentID, ReasonMatchResolved)
	return result, nil
}

func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	match, err := s.stores.Matches.GetMatch(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}
