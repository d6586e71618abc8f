package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/user-manager/internal/api"
	"github.com/isdelr/user-manager/internal/auth"
	"github.com/isdelr/user-manager/internal/config"
	"github.com/isdelr/user-manager/internal/database"
	"github.com/isdelr/user-manager/internal/logger"
	"github.com/isdelr/user-manager/internal/monitoring"
	"github.com/isdelr/user-manager/internal/services"
	"github.com/isdelr/user-manager/internal/view"
	"github.com/isdelr/user-manager/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, eventService)
	sessionService := services.NewSessionService(db)

	if err := seedAdmin(context.Background(), cfg, userService); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	authenticator := auth.NewAuthenticator(userService, sessionService, eventService, auth.NewTokenIssuer(cfg.SessionSecret), cfg.SessionTTL)
	gate := auth.NewGate(authenticator, cfg.IsProduction())

	renderer, err := view.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
	}

	// Purge expired sessions in the background
	sweeper, err := monitoring.NewSessionSweeper(cfg.SweepSchedule, sessionService, eventService)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("Invalid session sweep schedule")
	}
	sweeper.Start()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Gate:           gate,
		Authenticator:  authenticator,
		UserService:    userService,
		EventService:   eventService,
		Hub:            hub,
		DB:             db,
		Renderer:       renderer,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}

// seedAdmin creates the configured admin account on first start.
func seedAdmin(ctx context.Context, cfg *config.Config, users services.UserServiceProvider) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	_, err := users.GetUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, services.ErrUserNotFound) {
		return err
	}
	id, err := users.CreateUserWithPassword(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	log.Info().Int64("userId", id).Str("email", cfg.AdminEmail).Msg("Seeded admin user")
	return nil
}
