// Package session keeps per-session conversation history in memory.
// Histories are bounded ring-style buffers: once a session reaches the
// turn limit the oldest turns are dropped first. Nothing is persisted
// across restarts.
package session

import (
	"sync"
	"time"

	"lms-chatbot/internal/domain"
)

const (
	// DefaultMaxTurns bounds the turns kept per session.
	DefaultMaxTurns = 16
	// DefaultMaxSessions caps the number of distinct sessions held at
	// once; least-recently-active sessions are evicted beyond it.
	DefaultMaxSessions = 1024
)

type history struct {
	turns    []domain.Turn
	lastSeen time.Time
}

// Store is a concurrent map of session id to bounded turn history.
// Histories are strictly isolated by key.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*history
	maxTurns    int
	maxSessions int

	now func() time.Time // swapped in tests
}

// NewStore creates a Store. Non-positive limits fall back to the
// package defaults.
func NewStore(maxTurns, maxSessions int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		sessions:    make(map[string]*history),
		maxTurns:    maxTurns,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Append adds a turn to the session's history, creating the session on
// first use and evicting the oldest turns beyond the per-session bound.
// When the session count exceeds the store cap, the least-recently
// active other sessions are evicted here rather than by a background
// task.
func (s *Store) Append(sessionID string, turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.sessions[sessionID]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictIdleLocked()
		}
		h = &history{turns: make([]domain.Turn, 0, s.maxTurns)}
		s.sessions[sessionID] = h
	}

	h.turns = append(h.turns, turn)
	if overflow := len(h.turns) - s.maxTurns; overflow > 0 {
		h.turns = append(h.turns[:0], h.turns[overflow:]...)
	}
	h.lastSeen = s.now()
}

// History returns the session's turns oldest first. Unknown sessions
// yield an empty slice, never an error, and are not created.
func (s *Store) History(sessionID string) []domain.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]domain.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Reset deletes the session's history entirely. Resetting an unknown
// session is a no-op.
func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evictIdleLocked removes the least-recently-active session. Caller
// holds the write lock.
func (s *Store) evictIdleLocked() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, h := range s.sessions {
		if !found || h.lastSeen.Before(oldestAt) {
			oldestID, oldestAt, found = id, h.lastSeen, true
		}
	}
	if found {
		delete(s.sessions, oldestID)
	}
}
