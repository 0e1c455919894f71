package router

import (
	"time"

	tg "github.com/m3rciful/grabbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextRoute builds the handler for plain text. Command aliases win over the
// conversation state, so a localized keyboard button always does what it says.
// Then an active conversation gets the text, and otherwise the registry fallback.
func TextRoute(fsmMgr FSM, reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok {
				return handleWithSummary(c, normalizeHandlerName(key), func() error {
					return cmd.Handler(c)
				})
			}
		}

		if sender := c.Sender(); fsmMgr != nil && sender != nil && fsmMgr.InProgress(sender.ID) {
			return handleWithSummary(c, "fsm", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error { return fb(c) })
			}
		}

		logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}
	return tg.Route{Endpoint: tele.OnText, Handler: handler}
}
