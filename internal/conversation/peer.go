package conversation

import (
	"context"

	"github.com/m3rciful/grabbot/core/telegram/callbacks"
	"github.com/m3rciful/grabbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Peer is the part of the messaging client a conversation step talks to.
type Peer interface {
	Context() context.Context
	UserID() int64
	// Text is the message text; empty for button presses.
	Text() string
	// Payload is the data of the pressed inline button.
	Payload() string
	Reply(text string, markup *tele.ReplyMarkup) error
	SendFile(file tele.Sendable) error
	Notify(action tele.ChatAction) error
	// Respond acknowledges a button press. It is a no-op for plain messages.
	Respond(text string) error
}

type telePeer struct {
	c tele.Context
}

// NewPeer adapts a telebot context.
func NewPeer(c tele.Context) Peer { return telePeer{c: c} }

func (p telePeer) Context() context.Context { return helpers.BuildContext(p.c) }

func (p telePeer) UserID() int64 {
	if s := p.c.Sender(); s != nil {
		return s.ID
	}
	return 0
}

func (p telePeer) Text() string {
	if p.c.Callback() != nil {
		return ""
	}
	return p.c.Text()
}

func (p telePeer) Payload() string { return callbacks.CallbackPayload(p.c) }

func (p telePeer) Reply(text string, markup *tele.ReplyMarkup) error {
	return helpers.SendText(p.c, text, markup)
}

func (p telePeer) SendFile(file tele.Sendable) error { return helpers.Send(p.c, file, nil) }

func (p telePeer) Notify(action tele.ChatAction) error { return p.c.Notify(action) }

func (p telePeer) Respond(text string) error { return helpers.Answer(p.c, text) }
