// Package session offers caller-side persistence helpers for conversation
// state. The runtime itself never persists state; callers feed the state from
// one run into the next and own durable storage. Store is the seam for that
// ownership, with an in-memory implementation for tests and demos.
package session

import (
	"sync"

	"github.com/driftline/agentcore/core"
)

// Store persists conversation state between runs.
type Store interface {
	// Get returns the state for a session id, or an empty state bound to a
	// fresh session when none exists yet.
	Get(sessionID string) (*core.ConversationState, error)

	// Save stores a snapshot of the given state under its session id.
	Save(state *core.ConversationState) error

	// Delete removes a stored session. Unknown ids are a no-op.
	Delete(sessionID string) error
}

// InMemoryStore is a volatile Store implementation keeping conversation state
// in a process local map. It is safe for concurrent access and best suited
// for tests or ephemeral demo servers. Every state that crosses the store
// boundary is cloned to prevent external mutation of internal snapshots.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.ConversationState
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.ConversationState)}
}

// Get returns a clone of the stored state, or a fresh empty state carrying the
// requested session id when nothing is stored yet.
func (s *InMemoryStore) Get(sessionID string) (*core.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.sessions[sessionID]; ok {
		return state.Clone(), nil
	}
	state := &core.ConversationState{SessionID: sessionID}
	state.EnsureSessionID()
	return state, nil
}

// Save stores a clone of the provided state snapshot keyed by its session id.
func (s *InMemoryStore) Save(state *core.ConversationState) error {
	if state == nil {
		return nil
	}
	id := state.EnsureSessionID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = state.Clone()
	return nil
}

// Delete removes a stored session.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
