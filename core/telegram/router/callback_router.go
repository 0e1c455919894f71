package router

import (
	"log/slog"

	tg "github.com/m3rciful/grabbot/core/telegram"
	"github.com/m3rciful/grabbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the route dispatching inline button presses by their unique key.
// Handlers answer the callback themselves; unknown keys go to the registry fallback.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, payload := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key), slog.String("payload", payload)}

		cbHandler, ok := reg.GetCallback(key)
		if !ok {
			extras = append(extras, slog.String("cause", "not_found"))
			cbHandler = reg.CallbackNotFound()
		}
		if cbHandler == nil {
			return c.Respond()
		}
		return handleWithSummary(c, name, func() error { return cbHandler(c) }, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
