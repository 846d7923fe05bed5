package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-triage/internal/config"
)

const redisDialTimeout = 3 * time.Second

// Redis holds the client shared by the offer registry and the latest-ticket pointer.
type Redis struct {
	client *redis.Client
}

// NewRedis builds the client. An unreachable server is only logged: offer
// registration degrades to guidance without an escalation affordance until it
// comes back, and readiness reports it.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{client: client}
}

// Client exposes the command interface for the registry stores.
func (r *Redis) Client() redis.Cmdable {
	return r.client
}

// Ping is the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() {
	_ = r.client.Close()
}
