package main

import (
	"errors"
	"net/http"

	"github.com/AdamBeresnev/esports-tournament/internal/httputil"
	"github.com/AdamBeresnev/esports-tournament/internal/service"
)

// serviceError maps a service error kind to its HTTP response. Conflicts on the
// bracket endpoints answer 400 with code "conflict" so clients can still tell them apart.
func serviceError(w http.ResponseWriter, msg string, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		httputil.InternalServerError(w, msg, err)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		httputil.NotFound(w, svcErr.Error(), err)
	case errors.Is(err, service.ErrConflict):
		httputil.Error(w, http.StatusBadRequest, "conflict", svcErr.Error(), err)
	case errors.Is(err, service.ErrInvalidState):
		httputil.Error(w, http.StatusBadRequest, "invalid_state", svcErr.Error(), err)
	case errors.Is(err, service.ErrBadRequest):
		httputil.BadRequest(w, svcErr.Error(), err)
	case errors.Is(err, service.ErrForbidden):
		httputil.Forbidden(w, svcErr.Error(), err)
	case errors.Is(err, service.ErrUnauthorized):
		httputil.Unauthorized(w, svcErr.Error(), err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}
