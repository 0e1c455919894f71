package helpers

import (
	"log/slog"

	"github.com/m3rciful/grabbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Send delivers text or media to the current chat with an optional reply markup.
// Failures are logged against the update context and returned to the caller.
func Send(c tele.Context, what any, markup *tele.ReplyMarkup) error {
	var err error
	if markup != nil {
		err = c.Send(what, markup)
	} else {
		err = c.Send(what)
	}
	if err != nil {
		logger.Warn(BuildContext(c), "tg", "send.failed",
			slog.String("kind", sendKind(what)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return Send(c, text, rm)
}

// Answer acknowledges the callback query currently handled, if any.
// An empty text just stops the client-side spinner.
func Answer(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

func sendKind(what any) string {
	switch what.(type) {
	case string:
		return "text"
	case *tele.Video:
		return "video"
	case *tele.Audio:
		return "audio"
	case *tele.Document:
		return "document"
	default:
		return "other"
	}
}
