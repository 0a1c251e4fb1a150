package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/signupbot/core/logger"
)

const (
	attemptTimeout = 5 * time.Second
	readyTimeout   = 30 * time.Second
	retryDelay     = 2 * time.Second
)

// Connect opens the pool and pings it, retrying for up to readyTimeout so the bot can start
// next to a database that is still booting.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	start := time.Now()
	target := []slog.Attr{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}

	db, attempts, err := dial(ctx, cfg)
	if err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "db.connect", append(target,
			slog.String("status", "fail"),
			slog.Int("attempts", attempts),
			slog.Int64("duration_ms", logger.SinceMS(start)),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.connect", append(target,
		slog.String("status", "ok"),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Int("attempts", attempts),
		slog.Int64("duration_ms", logger.SinceMS(start)),
	)...)
	return db, nil
}

func dial(ctx context.Context, cfg Config) (*sqlx.DB, int, error) {
	deadline := time.Now().Add(readyTimeout)
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		db, err := sqlx.ConnectContext(attemptCtx, "postgres", cfg.DSN())
		cancel()
		if err == nil {
			return db, attempt, nil
		}
		if ctx.Err() != nil || time.Now().Add(retryDelay).After(deadline) {
			return nil, attempt, err
		}
		logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "db.connect",
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}
