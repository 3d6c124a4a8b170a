package httputil

import (
	"log/slog"
	"net/http"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// InternalServerError logs err and answers with a generic message; err never reaches the client.
func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusBadRequest, "bad_request", msg, err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusNotFound, "not_found", msg, err)
}

func Unauthorized(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusUnauthorized, "unauthorized", msg, err)
}

func Forbidden(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusForbidden, "forbidden", msg, err)
}

// Error answers with a client error carrying an explicit machine readable code.
func Error(w http.ResponseWriter, status int, code, msg string, err error) {
	clientError(w, status, code, msg, err)
}

func clientError(w http.ResponseWriter, status int, code, msg string, err error) {
	if err != nil {
		slog.Warn(http.StatusText(status), "message", msg, "error", err)
	} else {
		slog.Warn(http.StatusText(status), "message", msg)
	}
	WriteJSON(w, status, ErrorBody{Error: msg, Code: code})
}
