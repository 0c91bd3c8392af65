// Package session holds per-user conversational state between the
// link message and the quality selection.
package session

import "sync"

// State is an immutable snapshot of one user's stored state.
type State struct {
	LastURL        string
	CookieOverride string
}

// Store maps a chat user ID to its State. Entries are only ever read
// or replaced by actions of the owning user, but handlers for
// different users run concurrently, so access is guarded.
type Store struct {
	mu    sync.RWMutex
	users map[int64]State
}

func NewStore() *Store {
	return &Store{users: make(map[int64]State)}
}

// SetURL records the last submitted URL for a user.
func (s *Store) SetURL(userID int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.users[userID]
	state.LastURL = url
	s.users[userID] = state
}

// URL returns the last submitted URL for a user, if any.
func (s *Store) URL(userID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.users[userID]

	return state.LastURL, ok && state.LastURL != ""
}

// SetCookies stores raw credential material as the user's override,
// replacing any previous override.
func (s *Store) SetCookies(userID int64, material string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.users[userID]
	state.CookieOverride = material
	s.users[userID] = state
}

// State returns a copy of the user's stored state.
func (s *Store) State(userID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.users[userID]
}
