package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchPending   MatchStatus = "pending"
	MatchDisputed  MatchStatus = "disputed"
	MatchFinished  MatchStatus = "finished"
)

type Match struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`

	// Position in the bracket tree; round 1 is the first round
	RoundNumber int `db:"round_number"`
	MatchNumber int `db:"match_number"`

	Participant1ID   *uuid.UUID      `db:"participant1_id"`
	Participant1Kind ParticipantKind `db:"participant1_kind"`
	Participant2ID   *uuid.UUID      `db:"participant2_id"`
	Participant2Kind ParticipantKind `db:"participant2_kind"`

	Status     MatchStatus      `db:"status"`
	WinnerID   *uuid.UUID       `db:"winner_id"`
	WinnerKind *ParticipantKind `db:"winner_kind"`
	IsBye      bool             `db:"is_bye"`

	CreatedAt time.Time `db:"created_at"`
}

// Slot returns the participant in slot 1 or 2, or nil when the slot is empty.
func (m *Match) Slot(slot int) Participant {
	switch slot {
	case 1:
		return NewParticipant(m.Participant1Kind, m.Participant1ID)
	case 2:
		return NewParticipant(m.Participant2Kind, m.Participant2ID)
	}
	return nil
}

// SetSlot places p in slot 1 or 2. A nil p empties the slot.
func (m *Match) SetSlot(slot int, p Participant) {
	var id *uuid.UUID
	if p != nil {
		pid := p.ID()
		id = &pid
	}
	switch slot {
	case 1:
		m.Participant1ID = id
	case 2:
		m.Participant2ID = id
	}
}

func (m *Match) HasBothParticipants() bool {
	return m.Participant1ID != nil && m.Participant2ID != nil
}

func (m *Match) Winner() Participant {
	if m.WinnerKind == nil {
		return nil
	}
	return NewParticipant(*m.WinnerKind, m.WinnerID)
}

// WinnerSlot reports which slot holds the winner, or 0 if the match is undecided.
func (m *Match) WinnerSlot() int {
	if m.Status != MatchFinished || m.WinnerID == nil {
		return 0
	}
	if m.Participant1ID != nil && *m.Participant1ID == *m.WinnerID {
		return 1
	}
	if m.Participant2ID != nil && *m.Participant2ID == *m.WinnerID {
		return 2
	}
	return 0
}

func (m *Match) IsWinner(slot int) bool {
	return m.WinnerSlot() == slot
}

func (m *Match) IsLoser(slot int) bool {
	w := m.WinnerSlot()
	return w != 0 && w != slot
}

// NextPosition returns where the winner of a match at (round, number) is sent:
// match ceil(number/2) of the following round, slot 1 for odd numbers and slot 2 for even ones.
func NextPosition(round, number int) (nextRound, nextNumber, slot int) {
	slot = 2
	if number%2 != 0 {
		slot = 1
	}
	return round + 1, (number + 1) / 2, slot
}
