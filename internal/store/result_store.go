package store

import (
	"context"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ResultStore struct {
	db *sqlx.DB
}

func NewResultStore(db *sqlx.DB) *ResultStore {
	return &ResultStore{db: db}
}

const (
	createResultQuery = `
		INSERT INTO match_results (id, match_id, score_a, score_b, reported_by, confirmed_by, result_status, evidence_url, notes, reported_at, confirmed_at)
		VALUES (:id, :match_id, :score_a, :score_b, :reported_by, :confirmed_by, :result_status, :evidence_url, :notes, :reported_at, :confirmed_at)
	`
	updateResultQuery = `
		UPDATE match_results SET
		result_status = :result_status,
		confirmed_by = :confirmed_by,
		confirmed_at = :confirmed_at,
		notes = :notes
		WHERE id = :id
	`
	tournamentResultsQuery = `
		SELECT r.* FROM match_results r
		JOIN matches m ON m.id = r.match_id
		WHERE m.tournament_id = ?
		ORDER BY r.reported_at ASC
	`
)

func (s *ResultStore) CreateResult(ctx context.Context, q sqlx.ExtContext, result *bracket.MatchResult) error {
	_, err := sqlx.NamedExecContext(ctx, q, createResultQuery, result)
	return translateError(err)
}

func (s *ResultStore) GetResult(ctx context.Context, id uuid.UUID) (*bracket.MatchResult, error) {
	return s.GetResultTx(ctx, s.db, id)
}

func (s *ResultStore) GetResultTx(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.MatchResult, error) {
	var result bracket.MatchResult
	err := sqlx.GetContext(ctx, q, &result, q.Rebind("SELECT * FROM match_results WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *ResultStore) HasPendingResult(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind("SELECT COUNT(*) FROM match_results WHERE match_id = ? AND result_status = ?"),
		matchID, bracket.ResultPending)
	return count > 0, err
}

// UpdateResult persists status, confirmation and notes of an existing result.
func (s *ResultStore) UpdateResult(ctx context.Context, q sqlx.ExtContext, result *bracket.MatchResult) error {
	_, err := sqlx.NamedExecContext(ctx, q, updateResultQuery, result)
	return translateError(err)
}

func (s *ResultStore) DeleteResultsForMatch(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID) error {
	_, err := q.ExecContext(ctx, q.Rebind("DELETE FROM match_results WHERE match_id = ?"), matchID)
	return err
}

func (s *ResultStore) GetResultsForTournament(ctx context.Context, tournamentID uuid.UUID) ([]bracket.MatchResult, error) {
	var results []bracket.MatchResult
	err := s.db.SelectContext(ctx, &results, s.db.Rebind(tournamentResultsQuery), tournamentID)
	return results, err
}
