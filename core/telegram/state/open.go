package state

import (
	"context"
	"log/slog"

	"github.com/m3rciful/signupbot/core/logger"
)

// Open builds the Store selected by cfg. cfg must be normalized.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case BackendBolt:
		store, err = NewBoltStore(cfg.BoltPath, cfg.TTL)
	case BackendRedis:
		client, dialErr := DialRedis(ctx, cfg.RedisURL)
		if dialErr != nil {
			return nil, dialErr
		}
		store = &redisStore{client: client, prefix: cfg.RedisPrefix, ttl: cfg.TTL, owned: true}
	default:
		store = NewMemoryStore(cfg.TTL)
	}
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, logger.ComponentState, "store.open",
		slog.String("status", "ok"),
		slog.String("backend", cfg.Backend),
		slog.Duration("ttl", cfg.TTL),
	)
	return store, nil
}
