package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/grabbot/core/logger"
	"github.com/m3rciful/grabbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/grabbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware sets the request id, seeds the update context from base
// and logs a sampled receipt line per update.
func LoggerMiddleware(base context.Context) tele.MiddlewareFunc {
	if base == nil {
		base = context.Background()
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			upd := c.Update()
			var chatID, userID int64
			if chat := c.Chat(); chat != nil {
				chatID = chat.ID
			}
			user := c.Sender()
			if user != nil {
				userID = user.ID
			}
			rid := logger.BuildRID(upd.ID, chatID, userID)
			c.Set("rid", rid)
			c.Set("update_start", time.Now())
			tghelpers.StoreBase(c, base)
			ctx := tghelpers.BuildContext(c)

			if logger.ShouldSampleDebug() {
				attrs := []slog.Attr{slog.String("status", "ok")}
				if user != nil && user.LanguageCode != "" {
					attrs = append(attrs, slog.String("lang", user.LanguageCode))
				}
				switch {
				case upd.Callback != nil:
					key, payload := callbacks.ParseCallbackData(upd.Callback)
					attrs = append(attrs,
						slog.String("cb_key", logger.SanitizeLimit(key, 64)),
						slog.String("payload", logger.SanitizeLimit(payload, 128)),
					)
				case upd.Message != nil:
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
				}
				logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
			}

			return next(c)
		}
	}
}
