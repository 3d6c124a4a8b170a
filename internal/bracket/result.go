package bracket

import (
	"time"

	"github.com/google/uuid"
)

type ResultStatus string

const (
	ResultPending          ResultStatus = "pending"
	ResultConfirmed        ResultStatus = "confirmed"
	ResultDisputed         ResultStatus = "disputed"
	ResultConfirmedByAdmin ResultStatus = "confirmed_by_admin"
)

// IsFinal reports whether the result decided its match.
func (s ResultStatus) IsFinal() bool {
	return s == ResultConfirmed || s == ResultConfirmedByAdmin
}

type MatchResult struct {
	ID           uuid.UUID    `db:"id"`
	MatchID      uuid.UUID    `db:"match_id"`
	ScoreA       int          `db:"score_a"`
	ScoreB       int          `db:"score_b"`
	ReportedBy   uuid.UUID    `db:"reported_by"`
	ConfirmedBy  *uuid.UUID   `db:"confirmed_by"`
	ResultStatus ResultStatus `db:"result_status"`
	EvidenceURL  *string      `db:"evidence_url"`
	Notes        *string      `db:"notes"`
	ReportedAt   time.Time    `db:"reported_at"`
	ConfirmedAt  *time.Time   `db:"confirmed_at"`
}
