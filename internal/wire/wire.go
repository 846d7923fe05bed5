// Package wire assembles the triage service and its backing stores from
// configuration. The API server and the operator CLI share it.
package wire

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/api/http/handlers"
	"github.com/spec-kit/support-triage/internal/classifier"
	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/events"
	"github.com/spec-kit/support-triage/internal/observability"
	"github.com/spec-kit/support-triage/internal/persistence"
	"github.com/spec-kit/support-triage/internal/registry"
	"github.com/spec-kit/support-triage/internal/repository"
	"github.com/spec-kit/support-triage/internal/service"
	"github.com/spec-kit/support-triage/internal/tracker"
	"github.com/spec-kit/support-triage/internal/worker"
)

// Components is everything a process needs to serve triage requests.
type Components struct {
	Triage        *service.TriageService
	Notifications *service.NotificationService
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Index         repository.TicketIndex
	Checks        []handlers.DependencyCheck
	// Sweeper is set only for the in-memory offer registry.
	Sweeper worker.Sweeper

	closers []func()
}

// Build opens the configured index and registry and wires the service.
// The caller must Close the result.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    observability.NewMetrics(),
	}

	index, err := c.openIndex(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Index = index

	offers, latest, err := c.openRegistry(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Notifications = service.NewNotificationService(c.Dispatcher, logger, cfg.Notification)
	c.Triage = service.NewTriageService(service.TriageDependencies{
		Classifier: classifier.NewGeminiClassifier(cfg.Classifier, logger),
		Store:      tracker.NewMantisClient(cfg.TicketStore, logger),
		Index:      index,
		Offers:     offers,
		Latest:     latest,
		Dispatcher: c.Dispatcher,
		Metrics:    c.Metrics,
		Logger:     logger.Named("triage"),
	})
	return c, nil
}

func (c *Components) openIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.TicketIndex, error) {
	switch cfg.Index.Driver {
	case config.IndexDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, pg.Close)
		index := repository.NewPostgresTicketIndex(pg.Pool())
		c.Checks = append(c.Checks, handlers.DependencyCheck{Name: "postgres", Ping: index.Ping})
		return index, nil
	case config.IndexDriverSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		c.closers = append(c.closers, func() { _ = db.Close() })
		index := repository.NewSQLiteTicketIndex(db.DB)
		c.Checks = append(c.Checks, handlers.DependencyCheck{Name: "sqlite", Ping: index.Ping})
		return index, nil
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Index.Driver)
	}
}

func (c *Components) openRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.OfferRegistry, service.LatestPointer, error) {
	switch cfg.Registry.Backend {
	case config.RegistryBackendRedis:
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		c.closers = append(c.closers, rdb.Close)
		c.Checks = append(c.Checks, handlers.DependencyCheck{Name: "redis", Ping: rdb.Ping})
		return registry.NewRedisOffers(rdb.Client(), cfg.Registry.OfferTTL(), nil), registry.NewRedisLatest(rdb.Client()), nil
	case config.RegistryBackendMemory:
		offers := registry.NewMemoryOffers(cfg.Registry.OfferTTL(), cfg.Registry.MaxOffers, nil)
		c.Sweeper = offers
		return offers, registry.NewMemoryLatest(), nil
	default:
		return nil, nil, fmt.Errorf("unknown registry backend %q", cfg.Registry.Backend)
	}
}

// Close releases every opened store, newest first.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
