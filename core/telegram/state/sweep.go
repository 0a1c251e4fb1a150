package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/signupbot/core/logger"
)

// SweepInterval derives how often expired sessions are collected for a given ttl.
func SweepInterval(ttl time.Duration) time.Duration {
	every := ttl / 4
	switch {
	case every < time.Minute:
		return time.Minute
	case every > 15*time.Minute:
		return 15 * time.Minute
	}
	return every
}

// RunSweeper calls s.Sweep every interval until ctx is done. Sweep errors are logged and the
// loop keeps going.
func RunSweeper(ctx context.Context, s Sweeper, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		n, err := s.Sweep(ctx)
		switch {
		case err != nil:
			logger.Warn(ctx, logger.ComponentState, "store.sweep",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		case n > 0:
			logger.Debug(ctx, logger.ComponentState, "store.sweep",
				slog.String("status", "ok"),
				slog.Int("removed", n),
			)
		}
	}
}
