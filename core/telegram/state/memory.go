package state

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/grabbot/core/logger"
	tghelpers "github.com/m3rciful/grabbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	handlers map[State]tele.HandlerFunc
	now      func() time.Time
}

// NewMemoryManager constructs the in-memory Manager implementation.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
		handlers: make(map[State]tele.HandlerFunc),
		now:      time.Now,
	}
}

// session returns the user's session, creating it. Callers hold m.mu.
func (m *memoryManager) session(userID int64) *Session {
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{State: StateIdle, TempData: make(map[string]any)}
		m.sessions[userID] = s
	}
	s.UpdatedAt = m.now()
	return s
}

func (m *memoryManager) Touch(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID)
}

// Reset returns the user to idle and drops temporary data, keeping the language.
func (m *memoryManager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID)
	s.State = StateIdle
	clear(s.TempData)
}

func (m *memoryManager) SetLanguage(userID int64, lang string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).Language = lang
}

func (m *memoryManager) Language(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.Language
	}
	return ""
}

func (m *memoryManager) SetTemp(userID int64, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).TempData[key] = value
}

func (m *memoryManager) GetTemp(userID int64, key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	v, ok := s.TempData[key]
	return v, ok
}

func (m *memoryManager) GetTempString(userID int64, key string) (string, bool) {
	v, ok := m.GetTemp(userID, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *memoryManager) ClearTemp(userID int64, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		delete(s.TempData, key)
	}
}

func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
}

func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s.State
	}
	return StateIdle
}

func (m *memoryManager) Transition(userID int64, from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(userID)
	if s.State != from {
		return false
	}
	s.State = to
	return true
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// RegisterHandler associates a state with its text handler.
func (m *memoryManager) RegisterHandler(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

// ManagerHandler executes the handler registered for the user's current state.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	current := m.GetState(sender.ID)
	m.mu.RLock()
	handler, ok := m.handlers[current]
	m.mu.RUnlock()

	logger.Debug(tghelpers.BuildContext(c), "tg", "fsm.dispatch",
		slog.String("state", string(current)),
		slog.Bool("handled", ok),
	)
	if !ok {
		return fmt.Errorf("state: no handler for %q", current)
	}
	return handler(c)
}

// Sweep drops sessions untouched for longer than ttl and returns how many were removed.
func (m *memoryManager) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *memoryManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
