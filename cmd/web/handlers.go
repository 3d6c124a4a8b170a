package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/esports-tournament/internal/evidence"
	"github.com/AdamBeresnev/esports-tournament/internal/httputil"
	"github.com/AdamBeresnev/esports-tournament/internal/middleware"
	"github.com/AdamBeresnev/esports-tournament/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxEvidenceBytes = 10 << 20

type messageResponse struct {
	Message  string     `json:"message"`
	ResultID *uuid.UUID `json:"resultId,omitempty"`
}

type generateResponse struct {
	Message string `json:"message"`
	service.GenerateResult
}

type reportRequest struct {
	MatchID       uuid.UUID `json:"matchId"`
	ScoreA        int       `json:"scoreA"`
	ScoreB        int       `json:"scoreB"`
	EvidenceURL   string    `json:"evidenceUrl"`
	ScreenshotURL string    `json:"screenshotUrl"`
	Notes         string    `json:"notes"`
}

type disputeRequest struct {
	Reason      string `json:"reason"`
	EvidenceURL string `json:"evidenceUrl"`
}

type resolveRequest struct {
	ScoreA int    `json:"scoreA"`
	ScoreB int    `json:"scoreB"`
	Notes  string `json:"notes"`
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.Unauthorized(w, "authentication required", nil)
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: middleware.GetRoleFromContext(r.Context())}, true
}

func (app *application) handleGetTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "tournamentId")
	if !ok {
		return
	}
	tournament, err := app.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (app *application) handleGetBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "tournamentId")
	if !ok {
		return
	}
	views, err := app.tournaments.GetBracket(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to get bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (app *application) handleGenerateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "tournamentId")
	if !ok {
		return
	}
	result, err := app.brackets.GenerateBracket(r.Context(), id)
	if err != nil {
		serviceError(w, "Failed to generate bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, generateResponse{Message: "Bracket generated", GenerateResult: *result})
}

func (app *application) handleDeleteBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "tournamentId")
	if !ok {
		return
	}
	if err := app.brackets.DeleteBracket(r.Context(), id); err != nil {
		serviceError(w, "Failed to delete bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Bracket deleted"})
}

func (app *application) handleReportResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req reportRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}
	if req.MatchID == uuid.Nil {
		httputil.BadRequest(w, "matchId is required", nil)
		return
	}
	if req.EvidenceURL == "" {
		req.EvidenceURL = req.ScreenshotURL
	}

	result, err := app.matches.ReportResult(r.Context(), actor, service.ReportInput{
		MatchID:     req.MatchID,
		ScoreA:      req.ScoreA,
		ScoreB:      req.ScoreB,
		EvidenceURL: req.EvidenceURL,
		Notes:       req.Notes,
	})
	if err != nil {
		serviceError(w, "Failed to report result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Result reported", ResultID: &result.ID})
}

func (app *application) handleAcceptResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "resultId")
	if !ok {
		return
	}
	if _, err := app.matches.AcceptResult(r.Context(), actor, id); err != nil {
		serviceError(w, "Failed to accept result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Result accepted"})
}

func (app *application) handleDisputeResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "resultId")
	if !ok {
		return
	}

	// The body is optional
	var req disputeRequest
	if r.ContentLength != 0 {
		if err := httputil.ReadJSON(w, r, &req); err != nil {
			httputil.BadRequest(w, err.Error(), err)
			return
		}
	}

	if _, err := app.matches.DisputeResult(r.Context(), actor, service.DisputeInput{
		ResultID:    id,
		Reason:      req.Reason,
		EvidenceURL: req.EvidenceURL,
	}); err != nil {
		serviceError(w, "Failed to dispute result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Result disputed"})
}

func (app *application) handleAdminResolve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "matchId")
	if !ok {
		return
	}
	var req resolveRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		httputil.BadRequest(w, err.Error(), err)
		return
	}

	result, err := app.matches.AdminResolve(r.Context(), actor, service.ResolveInput{
		MatchID: id,
		ScoreA:  req.ScoreA,
		ScoreB:  req.ScoreB,
		Notes:   req.Notes,
	})
	if err != nil {
		serviceError(w, "Failed to resolve match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Match resolved", ResultID: &result.ID})
}

func (app *application) handleUploadEvidence(w http.ResponseWriter, r *http.Request) {
	if app.uploader == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "storage_disabled", "evidence storage is not configured", nil)
		return
	}
	matchID, ok := uuidParam(w, r, "matchId")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxEvidenceBytes+1<<20)
	if err := r.ParseMultipartForm(maxEvidenceBytes); err != nil {
		httputil.BadRequest(w, "Invalid multipart form", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "file is required", err)
		return
	}
	defer file.Close()

	if header.Size > maxEvidenceBytes {
		httputil.BadRequest(w, "file must not exceed 10 MiB", nil)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		httputil.BadRequest(w, "only image and video files are accepted", errors.New(contentType))
		return
	}

	match, err := app.matches.GetMatch(r.Context(), matchID)
	if err != nil {
		serviceError(w, "Failed to get match", err)
		return
	}

	url, err := app.uploader.Upload(r.Context(), evidence.ObjectKey(match.TournamentID, match.ID, header.Filename), contentType, file)
	if err != nil {
		httputil.InternalServerError(w, "Failed to upload evidence", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (app *application) handleTournamentSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "tournamentId")
	if !ok {
		return
	}
	app.hub.ServeTournament(w, r, id)
}

func (app *application) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	notifications, err := app.notifications.List(r.Context(), actor.UserID)
	if err != nil {
		serviceError(w, "Failed to list notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

func (app *application) handleReadNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := app.notifications.MarkRead(r.Context(), actor.UserID, id); err != nil {
		serviceError(w, "Failed to mark notification read", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Notification marked as read"})
}

func (app *application) handleReadAllNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	n, err := app.notifications.MarkAllRead(r.Context(), actor.UserID)
	if err != nil {
		serviceError(w, "Failed to mark notifications read", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": "All notifications marked as read", "updated": n})
}

func (app *application) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := app.notifications.Delete(r.Context(), actor.UserID, id); err != nil {
		serviceError(w, "Failed to delete notification", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "Notification deleted"})
}
