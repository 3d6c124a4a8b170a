package service

import "errors"

// Error kinds. Every error returned by the services wraps exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

var (
	ErrTournamentNotFound   = newError(ErrNotFound, "tournament not found")
	ErrMatchNotFound        = newError(ErrNotFound, "match not found")
	ErrResultNotFound       = newError(ErrNotFound, "match result not found")
	ErrBracketNotFound      = newError(ErrNotFound, "no bracket exists for this tournament")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")

	ErrBracketExists       = newError(ErrConflict, "bracket already exists for this tournament")
	ErrPendingResultExists = newError(ErrConflict, "a result for this match is already awaiting confirmation")

	ErrNotEnoughParticipants = newError(ErrInvalidState, "at least 2 confirmed participants are required")
	ErrMatchFinished         = newError(ErrInvalidState, "match is already finished")
	ErrMissingParticipants   = newError(ErrInvalidState, "match does not have two participants yet")
	ErrResultNotPending      = newError(ErrInvalidState, "result is not awaiting confirmation")
	ErrTiedScore             = newError(ErrInvalidState, "scores must not be equal")

	ErrNegativeScore    = newError(ErrBadRequest, "scores must not be negative")
	ErrSelfConfirmation = newError(ErrBadRequest, "you cannot accept your own result")
	ErrSelfDispute      = newError(ErrBadRequest, "you cannot dispute your own result")

	ErrNotParticipant = newError(ErrForbidden, "only participants of the match may do this")
	ErrNotOrganizer   = newError(ErrForbidden, "admin or organizer role required")
)
