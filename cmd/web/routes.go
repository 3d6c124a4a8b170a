package main

import (
	"net/http"

	"github.com/AdamBeresnev/esports-tournament/internal/evidence"
	"github.com/AdamBeresnev/esports-tournament/internal/live"
	"github.com/AdamBeresnev/esports-tournament/internal/middleware"
	"github.com/AdamBeresnev/esports-tournament/internal/service"
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type application struct {
	brackets      *service.BracketGeneration
	matches       *service.MatchService
	tournaments   *service.TournamentService
	notifications *service.NotificationService
	auth          *middleware.Authenticator
	hub           *live.Hub
	uploader      evidence.Uploader
}

func newRouter(app *application, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ws/tournaments/{tournamentId}", app.handleTournamentSocket)
	r.Get("/tournaments/{tournamentId}", app.handleGetTournament)

	r.Route("/brackets", func(r chi.Router) {
		r.Get("/{tournamentId}", app.handleGetBracket)

		r.Group(func(r chi.Router) {
			r.Use(app.auth.RequireAuth)

			r.Post("/report-result", app.handleReportResult)
			r.Post("/accept-result/{resultId}", app.handleAcceptResult)
			r.Post("/dispute-result/{resultId}", app.handleDisputeResult)
			r.Post("/evidence/{matchId}", app.handleUploadEvidence)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(users.RoleAdmin, users.RoleOrganizer))

				r.Post("/generate/{tournamentId}", app.handleGenerateBracket)
				r.Post("/admin-resolve/{matchId}", app.handleAdminResolve)
				r.Delete("/delete/{tournamentId}", app.handleDeleteBracket)
			})
		})
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Use(app.auth.RequireAuth)

		r.Get("/", app.handleListNotifications)
		r.Post("/readAll", app.handleReadAllNotifications)
		r.Post("/{id}/read", app.handleReadNotification)
		r.Delete("/{id}", app.handleDeleteNotification)
	})

	return r
}
