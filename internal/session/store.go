// Package session holds the per-browser authentication context: the store
// with the signed-in user plus loading/error state, and the registry that
// maps session cookies to live sessions.
package session

import (
	"sync"

	"github.com/kindify/kindify-gateway/internal/domain"
)

// State is an atomic snapshot of the store. Observers never see a partially
// applied transition.
type State struct {
	User    *domain.User
	Loading bool
	Err     string
}

// Store is the single source of truth for "is a user signed in" within one
// browser session. It performs no I/O; it is state holding plus change
// notification to subscribers (guard, header, dashboards).
type Store struct {
	mu      sync.Mutex
	user    *domain.User
	loading bool
	err     string
	subs    map[int]func(State)
	nextSub int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]func(State))}
}

// Subscribe registers a change listener. The returned func cancels it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{User: s.user, Loading: s.loading, Err: s.err}
}

func (s *Store) SetUser(u *domain.User) {
	s.mutate(func() {
		s.user = u
		s.err = ""
	})
}

func (s *Store) SetLoading(loading bool) {
	s.mutate(func() { s.loading = loading })
}

func (s *Store) SetError(msg string) {
	s.mutate(func() { s.err = msg })
}

// TryBegin marks a credential operation in flight. It fails when one is
// already running, enforcing the at-most-one-in-flight invariant instead of
// relying on the UI disabling its submit control.
func (s *Store) TryBegin() bool {
	begun := false
	s.mutate(func() {
		if !s.loading {
			s.loading = true
			begun = true
		}
	})
	return begun
}

// End releases the in-flight flag. Safe to call unconditionally in a defer.
func (s *Store) End() {
	s.SetLoading(false)
}

// Clear resets the store to its signed-out state (logout).
func (s *Store) Clear() {
	s.mutate(func() {
		s.user = nil
		s.loading = false
		s.err = ""
	})
}

// mutate applies fn under the lock and notifies subscribers with the
// resulting snapshot after releasing it, so listeners may call back into the
// store without deadlocking.
func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	snapshot := State{User: s.user, Loading: s.loading, Err: s.err}
	listeners := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		listeners = append(listeners, sub)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
