package router

import (
	"log/slog"

	"github.com/m3rciful/grabbot/core/logger"
	tg "github.com/m3rciful/grabbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered slash command as a bot endpoint.
// Aliases are resolved by the text route instead.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := normalizeHandlerName(cmd)
		h := def.Handler
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, name, func() error { return h(c) })
			},
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
