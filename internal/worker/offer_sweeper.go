package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired entries and reports how many were removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// StartOfferSweeper runs sweeper every interval until ctx is cancelled.
// The returned channel closes when the sweeper exits.
func StartOfferSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if sweeper == nil || interval <= 0 {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := sweeper.Sweep(now); removed > 0 {
					logger.Info("swept expired escalation offers", zap.Int("removed", removed))
				}
			}
		}
	}()
	return done
}
