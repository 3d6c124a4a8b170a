package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/esports-tournament/internal/bracket"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ParticipantResolver struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewParticipantResolver(db *sqlx.DB, store *store.TournamentStore) *ParticipantResolver {
	return &ParticipantResolver{db: db, store: store}
}

// ResolveParticipants returns the participant kind of a tournament and its confirmed registrants.
func (r *ParticipantResolver) ResolveParticipants(ctx context.Context, tournamentID uuid.UUID) (bracket.ParticipantKind, []uuid.UUID, error) {
	tournament, err := r.store.GetTournamentTx(ctx, r.db, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrTournamentNotFound
		}
		return "", nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return r.resolve(ctx, r.db, tournament)
}

func (r *ParticipantResolver) resolve(ctx context.Context, q sqlx.ExtContext, tournament *bracket.Tournament) (bracket.ParticipantKind, []uuid.UUID, error) {
	ids, err := r.store.ConfirmedParticipantIDs(ctx, q, tournament.ID, tournament.RegistrationKind)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return tournament.RegistrationKind.ParticipantKind(), ids, nil
}
