package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-triage/internal/api/http"
	"github.com/spec-kit/support-triage/internal/api/http/handlers"
	"github.com/spec-kit/support-triage/internal/auth"
	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/observability"
	"github.com/spec-kit/support-triage/internal/wire"
	"github.com/spec-kit/support-triage/internal/worker"
	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			logger.Fatal("missing required configuration", zap.Any("missing", domainErr.Details["missing"]))
		}
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := wire.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize stores", zap.Error(err))
	}
	defer components.Close()

	notifyDone := worker.StartNotificationWorker(ctx, components.Notifications, logger.Named("notification-worker"))
	sweepDone := worker.StartOfferSweeper(ctx, components.Sweeper, cfg.Registry.SweepInterval(), logger.Named("offer-sweeper"))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, cfg.Auth.APIKeyHash)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout() + 5*time.Second,
		WriteTimeout: cfg.App.RequestTimeout() + 5*time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, components.Metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, components.Checks...),
		Triage:         handlers.NewTriageHandler(components.Triage),
		Tickets:        handlers.NewTicketsHandler(components.Triage),
		Metrics:        handlers.NewMetricsHandler(components.Metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	<-notifyDone
	<-sweepDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
