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

	"github.com/ffarena/tournament-engine/config"
	"github.com/ffarena/tournament-engine/db"
	"github.com/ffarena/tournament-engine/events"
	"github.com/ffarena/tournament-engine/handlers"
	"github.com/ffarena/tournament-engine/repositories"
	api "github.com/ffarena/tournament-engine/routes"
	"github.com/ffarena/tournament-engine/services"
	"github.com/ffarena/tournament-engine/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const schedulerInterval = 30 * time.Second // How often the auto-start scheduler runs

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store selection: Postgres when configured, in-memory otherwise.
	var tournamentRepo repositories.TournamentRepository
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			}
		}()
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			logger.Error("failed to ensure database schema", slog.Any("error", err))
			os.Exit(1)
		}
		tournamentRepo = repositories.NewPostgresTournamentRepository(dbConn)
		logger.Info("database connection established")
	} else {
		tournamentRepo = repositories.NewInMemoryTournamentRepository()
		logger.Warn("DATABASE_URL not set, using in-memory store; state will not survive restarts")
	}

	// Banner storage (Cloudflare R2), optional.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 credentials not set, banner uploads disabled")
	}

	// Event hub (notification collaborator surface)
	hub := events.NewHub(logger)
	go hub.Run()
	logger.Info("event hub started")

	// Payment collaborator stub
	paymentGateway := services.NewStaticPaymentGateway(cfg.PaymentsAutoConfirm)

	// Services
	tournamentService := services.NewTournamentService(tournamentRepo, paymentGateway, uploader, hub, logger)
	registrationService := services.NewRegistrationService(tournamentRepo, paymentGateway, logger)
	prizeService := services.NewPrizeService(tournamentRepo, hub, logger)
	dashboardService := services.NewDashboardService(tournamentRepo)
	logger.Info("services initialized")

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg.JWTSecretKey, cfg.OperatorPasswordHash)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, prizeService)
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		tournamentHandler,
		registrationHandler,
		dashboardHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Auto-start scheduler: promotes upcoming tournaments whose start time
	// has passed, which also closes their registration.
	g.Go(func() error {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament auto-start scheduler started", slog.Duration("interval", schedulerInterval))

		if err := tournamentService.AutoStartDueTournaments(gCtx); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if err := tournamentService.AutoStartDueTournaments(gCtx); err != nil {
					logger.Error("scheduler: periodic run failed", slog.Any("error", err))
				}
			}
		}
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
