package store

import (
	"context"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateMatches(ctx context.Context, q sqlx.ExtContext, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO matches (id, tournament_id, round_number, match_number, participant1_id, participant1_kind, participant2_id, participant2_kind, status, is_bye)
		VALUES (:id, :tournament_id, :round_number, :match_number, :participant1_id, :participant1_kind, :participant2_id, :participant2_kind, :status, :is_bye)`, matches)
	return translateError(err)
}

func (s *MatchStore) CountMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind("SELECT COUNT(*) FROM matches WHERE tournament_id = ?"), tournamentID)
	return count, err
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return s.GetMatchTx(ctx, s.db, id)
}

func (s *MatchStore) GetMatchTx(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// LockMatch reads the match row and holds it until the transaction ends.
func (s *MatchStore) LockMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, tx.Rebind("SELECT * FROM matches WHERE id = ?"+forUpdate(tx)), id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) GetMatchAt(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, round, number int) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind(`SELECT * FROM matches
		WHERE tournament_id = ? AND round_number = ? AND match_number = ?`), tournamentID, round, number)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind("SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_number ASC"), tournamentID)
	return matches, err
}

func (s *MatchStore) SetStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status bracket.MatchStatus) error {
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE matches SET status = ? WHERE id = ?"), status, id)
	return err
}

func (s *MatchStore) FinishMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, winner bracket.Participant) error {
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE matches SET status = ?, winner_id = ?, winner_kind = ? WHERE id = ?"),
		bracket.MatchFinished, winner.ID(), winner.Kind(), id)
	return err
}

// FillSlot writes only the columns of one slot, so sibling matches feeding the
// same downstream match never overwrite each other.
func (s *MatchStore) FillSlot(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, slot int, p bracket.Participant) error {
	query := "UPDATE matches SET participant1_id = ?, participant1_kind = ? WHERE id = ?"
	if slot == 2 {
		query = "UPDATE matches SET participant2_id = ?, participant2_kind = ? WHERE id = ?"
	}
	_, err := q.ExecContext(ctx, q.Rebind(query), p.ID(), p.Kind(), id)
	return err
}

// DeleteBracket removes every match and result of a tournament and reports how many matches went.
func (s *MatchStore) DeleteBracket(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) (int64, error) {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM match_results
		WHERE match_id IN (SELECT id FROM matches WHERE tournament_id = ?)`), tournamentID); err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, q.Rebind("DELETE FROM matches WHERE tournament_id = ?"), tournamentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
