package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/grabbot/core/logger"
	tghelpers "github.com/m3rciful/grabbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// UpdateKind classifies an update for rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	default:
		return "other"
	}
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}

			now := time.Now()
			mu.Lock()
			last, ok := lastSeen[user.ID]
			limited := ok && now.Sub(last) < opts.Interval
			if !limited {
				lastSeen[user.ID] = now
				for id, ts := range lastSeen {
					if now.Sub(ts) > opts.Interval {
						delete(lastSeen, id)
					}
				}
			}
			mu.Unlock()

			if limited {
				logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
					slog.String("status", "rate_limited"),
				)
				if opts.OnLimited != nil {
					return opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
