package state

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/grabbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// WithSession marks the sender's session as active on every update.
func WithSession(mgr Manager) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if sender := c.Sender(); sender != nil {
				mgr.Touch(sender.ID)
			}
			return next(c)
		}
	}
}

// RunSweeper removes idle sessions every interval until ctx is done.
func RunSweeper(ctx context.Context, mgr Manager, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mgr.Sweep(ttl); n > 0 {
				logger.Info(ctx, "conversation", "session.sweep",
					slog.Int("removed", n),
					slog.Int("sessions", mgr.Len()),
				)
			}
		}
	}
}
