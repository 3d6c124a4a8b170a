package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/esports-tournament/internal/config"
	"github.com/AdamBeresnev/esports-tournament/internal/db"
	"github.com/AdamBeresnev/esports-tournament/internal/evidence"
	"github.com/AdamBeresnev/esports-tournament/internal/live"
	"github.com/AdamBeresnev/esports-tournament/internal/middleware"
	"github.com/AdamBeresnev/esports-tournament/internal/service"
	"github.com/AdamBeresnev/esports-tournament/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	database, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub(cfg.AllowedOrigins)
	go hub.Run(ctx)

	var uploader evidence.Uploader
	if cfg.Evidence.Enabled() {
		r2, err := evidence.NewR2Uploader(ctx, evidence.R2Config(cfg.Evidence))
		if err != nil {
			return err
		}
		uploader = r2
	} else {
		slog.Info("evidence storage not configured, uploads disabled")
	}

	stores := store.NewStores(database)
	app := &application{
		brackets:      service.NewBracketService(database, stores, service.NewRandomShuffler(), hub),
		matches:       service.NewMatchService(database, stores, hub),
		tournaments:   service.NewTournamentService(database, stores),
		notifications: service.NewNotificationService(stores.Notifications),
		auth:          middleware.NewAuthenticator(cfg.JWTSecretKey),
		hub:           hub,
		uploader:      uploader,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      newRouter(app, cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
