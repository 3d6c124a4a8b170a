package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, q sqlx.ExtContext, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO tournaments (id, organizer_id, name, registration_kind, status, max_participants)
        VALUES (:id, :organizer_id, :name, :registration_kind, :status, :max_participants)`, tournament)
	return translateError(err)
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.GetTournamentTx(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, q.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

// LockTournament reads the tournament row and holds it until the transaction ends.
func (s *TournamentStore) LockTournament(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := tx.GetContext(ctx, &tournament, tx.Rebind("SELECT * FROM tournaments WHERE id = ?"+forUpdate(tx)), id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET status = ? WHERE id = ?"), status, id)
	return err
}

// ConfirmedParticipantIDs returns the distinct confirmed registrants of a tournament in registration order.
func (s *TournamentStore) ConfirmedParticipantIDs(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, kind bracket.RegistrationKind) ([]uuid.UUID, error) {
	table, column := "tournament_registrations_individual", "user_id"
	if kind == bracket.TeamRegistration {
		table, column = "tournament_registrations_team", "team_id"
	}

	query := fmt.Sprintf(`SELECT %[2]s FROM %[1]s
		WHERE tournament_id = ? AND LOWER(status) = ?
		GROUP BY %[2]s
		ORDER BY MIN(registered_at) ASC, %[2]s ASC`, table, column)

	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, q, &ids, q.Rebind(query), tournamentID, bracket.RegistrationConfirmed)
	return ids, err
}

func (s *TournamentStore) RegisterTeam(ctx context.Context, tournamentID, teamID uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO tournament_registrations_team (id, tournament_id, team_id, status)
		VALUES (?, ?, ?, ?)`), uuid.New(), tournamentID, teamID, status)
	return err
}

func (s *TournamentStore) RegisterUser(ctx context.Context, tournamentID, userID uuid.UUID, status string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO tournament_registrations_individual (id, tournament_id, user_id, status)
		VALUES (?, ?, ?, ?)`), uuid.New(), tournamentID, userID, status)
	return err
}
