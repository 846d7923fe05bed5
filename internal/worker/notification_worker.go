package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/service"
)

// StartNotificationWorker registers notification handlers and delivers queued
// events until ctx is cancelled. The returned channel closes when the worker exits.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil {
		close(done)
		return done
	}
	notificationService.RegisterHandlers()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-notificationService.Queue():
				if err := notificationService.Deliver(ctx, event); err != nil {
					logger.Warn("webhook delivery failed",
						zap.String("event_id", event.ID),
						zap.String("event_type", string(event.Type)),
						zap.Error(err))
				}
			}
		}
	}()
	return done
}
