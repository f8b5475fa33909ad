// Package chat keeps per-session conversation history. Sessions are
// process-local: a bounded window of prior exchanges, keyed by an opaque id.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Exchange is one completed (query, answer) turn.
type Exchange struct {
	Query  string    `json:"query"`
	Answer string    `json:"answer"`
	At     time.Time `json:"at"`
}

type session struct {
	exchanges []Exchange
}

// SessionManager holds conversation windows for all active sessions. Each
// session keeps at most maxHistory exchanges; the oldest is evicted first.
type SessionManager struct {
	mu         sync.Mutex
	sessions   map[string]*session
	maxHistory int
}

func NewSessionManager(maxHistory int) *SessionManager {
	if maxHistory <= 0 {
		maxHistory = 2
	}
	return &SessionManager{
		sessions:   make(map[string]*session),
		maxHistory: maxHistory,
	}
}

// CreateSession registers a new empty session and returns its id.
func (m *SessionManager) CreateSession() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &session{}
	m.mu.Unlock()
	return id
}

// AddExchange appends a completed turn, creating the session if needed and
// evicting the oldest turn beyond the history bound.
func (m *SessionManager) AddExchange(id, query, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		sess = &session{}
		m.sessions[id] = sess
	}

	sess.exchanges = append(sess.exchanges, Exchange{Query: query, Answer: answer, At: time.Now().UTC()})
	if len(sess.exchanges) > m.maxHistory {
		sess.exchanges = sess.exchanges[len(sess.exchanges)-m.maxHistory:]
	}
}

// History formats a session's prior turns for the generator's system prompt.
// Returns "" for unknown or empty sessions.
func (m *SessionManager) History(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok || len(sess.exchanges) == 0 {
		return ""
	}

	lines := make([]string, 0, len(sess.exchanges)*2)
	for _, ex := range sess.exchanges {
		lines = append(lines, fmt.Sprintf("User: %s", ex.Query))
		lines = append(lines, fmt.Sprintf("Assistant: %s", ex.Answer))
	}
	return strings.Join(lines, "\n")
}

// Exchanges returns a copy of a session's recent turns, newest last. A
// non-positive limit returns everything retained.
func (m *SessionManager) Exchanges(id string, limit int) []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil
	}

	exchanges := sess.exchanges
	if limit > 0 && len(exchanges) > limit {
		exchanges = exchanges[len(exchanges)-limit:]
	}
	out := make([]Exchange, len(exchanges))
	copy(out, exchanges)
	return out
}

// Clear drops a session's history. Clearing an unknown session is a no-op.
func (m *SessionManager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
