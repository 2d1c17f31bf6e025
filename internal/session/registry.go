package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kindify/kindify-gateway/internal/filter"
	"github.com/kindify/kindify-gateway/internal/recovery"
	"github.com/kindify/kindify-gateway/pkg/logger"
)

// Session bundles everything the gateway tracks for one browser: the auth
// store, the credential-recovery machine, the filter applier, and the
// upstream API token.
type Session struct {
	ID       string
	Store    *Store
	Recovery *recovery.Machine
	Filter   *filter.Applier

	mu       sync.Mutex
	token    string
	lastSeen time.Time
}

// Token returns the upstream API token issued at login, if any.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// Factory builds the recovery machine and filter applier for a new session.
type Factory func(id string) (*recovery.Machine, *filter.Applier)

// Registry owns session lifecycle: created on first contact, torn down on
// logout or TTL expiry. Sessions are never persisted.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  Factory
	now      func() time.Time
}

func NewRegistry(ttl time.Duration, factory Factory) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

func (r *Registry) Create() *Session {
	id := uuid.NewString()
	machine, applier := r.factory(id)
	sess := &Session{
		ID:       id,
		Store:    NewStore(),
		Recovery: machine,
		Filter:   applier,
		lastSeen: r.now(),
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()
	return sess
}

// Get returns the live session for id, refreshing its last-seen time.
// Expired sessions are removed rather than returned.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	now := r.now()
	if sess.expired(now, r.ttl) {
		r.Remove(id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops all expired sessions and reports how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, sess := range r.sessions {
		if sess.expired(now, r.ttl) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions on an interval until ctx is canceled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				logger.Info("Swept expired sessions", "removed", removed, "active", r.Len())
			}
		}
	}
}
