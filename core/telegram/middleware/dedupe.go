package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/grabbot/core/logger"
	tghelpers "github.com/m3rciful/grabbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// DefaultDedupeWindow outlives the longest media job, so a webhook delivery
// retried by Telegram while a download is still running is dropped.
const DefaultDedupeWindow = 15 * time.Minute

// Deduper remembers recently processed update ids.
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[int]time.Time
	now    func() time.Time
}

// NewDeduper returns a Deduper forgetting ids after window.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	return &Deduper{window: window, seen: make(map[int]time.Time), now: time.Now}
}

// Seen records updateID and reports whether it was already recorded within the window.
func (d *Deduper) Seen(updateID int) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, ts := range d.seen {
		if now.Sub(ts) > d.window {
			delete(d.seen, id)
		}
	}
	if _, ok := d.seen[updateID]; ok {
		return true
	}
	d.seen[updateID] = now
	return false
}

// Middleware drops updates whose id was processed recently.
func (d *Deduper) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		id := c.Update().ID
		if id != 0 && d.Seen(id) {
			logger.Debug(tghelpers.BuildContext(c), "tg", "update.duplicate",
				slog.String("status", "skip"),
			)
			return nil
		}
		return next(c)
	}
}
