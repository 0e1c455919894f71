package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	keyMessages = "messages"
	keyFiles    = "files"
	keyKB       = "kb"
)

// metricsContext wraps tele.Context to count replies, uploaded files and keyboard usage.
type metricsContext struct{ tele.Context }

func (m metricsContext) record(what any, opts []any) {
	m.Set(keyMessages, counter(m.Context, keyMessages)+1)
	switch what.(type) {
	case *tele.Video, *tele.Audio, *tele.Document:
		m.Set(keyFiles, counter(m.Context, keyFiles)+1)
	}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				m.Set(keyKB, true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				m.Set(keyKB, true)
			}
		}
	}
}

// Send proxies tele.Context.Send while updating counters.
func (m metricsContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.record(what, opts)
	}
	return err
}

// Reply proxies tele.Context.Reply while updating counters.
func (m metricsContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.record(what, opts)
	}
	return err
}

// EditOrSend proxies tele.Context.EditOrSend while updating counters.
func (m metricsContext) EditOrSend(what any, opts ...any) error {
	err := m.Context.EditOrSend(what, opts...)
	if err == nil {
		m.record(what, opts)
	}
	return err
}

// MessageMetricsMiddleware instruments context to track replies sent for the update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyFiles, 0)
		c.Set(keyKB, false)
		return next(metricsContext{Context: c})
	}
}

// Counters holds the per-update reply statistics.
type Counters struct {
	Messages int
	Files    int
	Keyboard bool
}

// GetCounters reads reply statistics collected by MessageMetricsMiddleware.
func GetCounters(c tele.Context) Counters {
	kb, _ := c.Get(keyKB).(bool)
	return Counters{
		Messages: counter(c, keyMessages),
		Files:    counter(c, keyFiles),
		Keyboard: kb,
	}
}

func counter(c tele.Context, key string) int {
	n, _ := c.Get(key).(int)
	return n
}
