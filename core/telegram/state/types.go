package state

import (
	"time"

	tele "gopkg.in/telebot.v4"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State     State
	Language  string
	TempData  map[string]any
	UpdatedAt time.Time
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	Touch(userID int64)
	// Reset returns the user to idle and drops temp data, keeping the language.
	Reset(userID int64)

	SetLanguage(userID int64, lang string)
	Language(userID int64) string

	SetTemp(userID int64, key string, value any)
	GetTemp(userID int64, key string) (any, bool)
	GetTempString(userID int64, key string) (string, bool)
	ClearTemp(userID int64, key string)

	SetState(userID int64, st State)
	GetState(userID int64) State
	// Transition moves the user from one state to another only if the
	// current state equals from. It reports whether the move happened.
	Transition(userID int64, from, to State) bool
	InProgress(userID int64) bool

	RegisterHandler(st State, h tele.HandlerFunc)
	ManagerHandler(c tele.Context) error

	Sweep(ttl time.Duration) int
	Len() int
}
