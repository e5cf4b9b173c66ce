package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/auth"
	"github.com/routepulse/server/internal/challenge"
	"github.com/routepulse/server/internal/config"
	"github.com/routepulse/server/internal/db"
	httphandler "github.com/routepulse/server/internal/http"
	"github.com/routepulse/server/internal/http/handlers"
	"github.com/routepulse/server/internal/logging"
	"github.com/routepulse/server/internal/repo"
	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; real env vars override it
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	logger.Info("connecting to database", zap.String("dsn", db.RedactDSN(cfg.DatabaseURL)))
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	userRepo := repo.NewUserRepo(database)
	postRepo := repo.NewPostRepo(database)
	routeRepo := repo.NewRouteRepo(database)
	scoreRepo := repo.NewScoreRepo(database)
	challengeRepo := repo.NewChallengeRepo(database)
	friendshipRepo := repo.NewFriendshipRepo(database)
	sensorDataRepo := repo.NewSensorDataRepo(database)
	leaderboardRepo := repo.NewLeaderboardRepo(database)

	// Services
	tokenService := auth.NewTokenService(cfg.JWTSecret)
	authService := auth.NewService(userRepo, tokenService, logger)
	challengeEngine := challenge.NewEngine(challengeRepo, logger)

	// Handlers
	h := httphandler.Handlers{
		Auth:        handlers.NewAuthHandler(authService, logger),
		Users:       handlers.NewUserHandler(userRepo, logger),
		Posts:       handlers.NewPostHandler(postRepo, logger),
		Routes:      handlers.NewRouteHandler(routeRepo, scoreRepo, logger),
		Challenges:  handlers.NewChallengeHandler(challengeEngine, logger),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardRepo, logger),
		Friends:     handlers.NewFriendHandler(friendshipRepo, userRepo, logger),
		SensorData:  handlers.NewSensorDataHandler(sensorDataRepo, scoreRepo, logger),
	}

	router := httphandler.NewRouter(h, tokenService, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the module root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
