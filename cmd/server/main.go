// cmd/server is the application entry point. It wires together all layers,
// starts the reminder scheduler, and serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/campusconnect/eventline/internal/config"
	"github.com/campusconnect/eventline/internal/database"
	"github.com/campusconnect/eventline/internal/handler"
	"github.com/campusconnect/eventline/internal/mailer"
	"github.com/campusconnect/eventline/internal/reminder"
	"github.com/campusconnect/eventline/internal/repository"
	"github.com/campusconnect/eventline/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	if err := database.Migrate(cfg.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres", zap.String("db", cfg.DB.Name))

	// Repositories and services.
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	eventSvc := service.NewEventService(eventRepo)
	regSvc := service.NewRegistrationService(regRepo, logger)
	userSvc := service.NewUserService(userRepo)

	// Reminder pipeline. The notifier is the one external collaborator:
	// SMTP when configured, log-only otherwise.
	var notifier reminder.Notifier
	if cfg.SMTP.Host != "" {
		notifier, err = mailer.New(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("mailer: %w", err)
		}
	} else {
		logger.Warn("no SMTP host configured, reminders will only be logged")
		notifier = reminder.NewLogNotifier(logger)
	}

	tiers, err := reminder.ParseTiers(cfg.Scheduler.Tiers)
	if err != nil {
		return fmt.Errorf("reminder tiers: %w", err)
	}

	dispatcher := reminder.NewDispatcher(
		regRepo, userRepo, notifier,
		cfg.Scheduler.SendThrottle, cfg.Scheduler.NotifierTimeout,
		logger,
	)
	scanner := reminder.NewScanner(eventRepo, dispatcher, logger)
	sweeper := reminder.NewSweeper(regRepo, cfg.Scheduler.Retention, logger)
	scheduler := reminder.NewScheduler(reminder.SchedulerConfig{
		Tiers:           tiers,
		CleanupSchedule: cfg.Scheduler.CleanupSchedule,
	}, scanner, sweeper, logger)

	if cfg.Scheduler.Enabled {
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	} else {
		logger.Info("reminder scheduler disabled by config")
	}

	// Router.
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.AccessLog(logger))

	r.Get("/health", handler.HealthCheck)
	r.Route("/events", handler.NewEventHandler(eventSvc).Routes)
	r.Route("/registrations", handler.NewRegistrationHandler(regSvc).Routes)
	r.Route("/users", handler.NewUserHandler(userSvc).Routes)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
