package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
	"github.com/spec-kit/support-triage/internal/observability"
	"github.com/spec-kit/support-triage/internal/wire"
	apperrors "github.com/spec-kit/support-triage/pkg/util"
)

// webhookFlushTimeout bounds delivery of events queued during one command.
const webhookFlushTimeout = 5 * time.Second

// session is one CLI invocation's view of the wired services.
type session struct {
	cfg        *config.Config
	logger     *zap.Logger
	components *wire.Components
}

// openSession loads configuration and wires the same services the server uses.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			if missing, ok := domainErr.Details["missing"].([]string); ok {
				return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
			}
		}
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	components, err := wire.Build(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize stores: %w", err)
	}
	components.Notifications.RegisterHandlers()
	return &session{cfg: cfg, logger: logger, components: components}, nil
}

func (s *session) Close() {
	s.flushWebhooks()
	s.components.Close()
	_ = s.logger.Sync()
}

// flushWebhooks delivers whatever the command queued; the CLI runs no
// background notification worker.
func (s *session) flushWebhooks() {
	ctx, cancel := context.WithTimeout(context.Background(), webhookFlushTimeout)
	defer cancel()
	queue := s.components.Notifications.Queue()
	for {
		select {
		case event := <-queue:
			if err := s.components.Notifications.Deliver(ctx, event); err != nil {
				s.logger.Warn("webhook delivery failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		default:
			return
		}
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// describeError turns a service error into a one-line reason for the operator.
func describeError(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}
