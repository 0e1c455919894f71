package telegram

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller returns the long poller used outside webhook mode.
func BuildPoller(timeoutSeconds int) *tele.LongPoller {
	timeout := defaultLongPollTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout}
}

// ListenAddr joins the configured listen host and port; an empty host binds all interfaces.
func ListenAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", strings.TrimSpace(host), port)
}
