// Package session keeps per-browser state across connections.
//
// A Manager hands out a State for every HTTP request, loading it from a Store
// by the id in the session cookie or creating a fresh one. Middleware sets
// the cookie on the first response only, and components read the state
// through FromContext.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// CookieName is the name of the session cookie.
const CookieName = "IdomSessionId"

// DefaultTTL is how long a session lives.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNoState is returned by Update for a nil state.
var ErrNoState = errors.New("session: no state")

// State is the data kept for one session.
type State struct {
	ID        string         `json:"id"`
	ExpiresAt time.Time      `json:"expires_at"`
	Data      map[string]any `json:"data,omitempty"`

	// Fresh is true until the cookie carrying ID has been sent.
	Fresh bool `json:"-"`
}

// Expired reports whether the session is past its expiry at now.
func (s *State) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Clone returns a shallow copy with its own Data map.
func (s *State) Clone() *State {
	c := *s
	if s.Data != nil {
		c.Data = make(map[string]any, len(s.Data))
		for k, v := range s.Data {
			c.Data[k] = v
		}
	}
	return &c
}

// Store persists session states.
type Store interface {
	// Read returns the state for id, or nil if there is none.
	Read(ctx context.Context, id string) (*State, error)

	// Write creates or replaces a state.
	Write(ctx context.Context, s *State) error

	// Delete removes a state. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Manager creates and loads session states.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Get loads the state for id. A missing, unknown or expired id yields a
// new, fresh state.
func (m *Manager) Get(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return m.create(ctx)
	}
	st, err := m.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case st == nil:
		m.logger.Info("could not load session", "session_id", id)
		return m.create(ctx)
	case st.Expired(m.now()):
		m.logger.Info("session expired", "session_id", id, "expired_at", st.ExpiresAt)
		if err := m.store.Delete(ctx, id); err != nil {
			return nil, err
		}
		return m.create(ctx)
	}
	m.logger.Debug("loaded session", "session_id", id)
	return st, nil
}

// Update writes a state back to the store.
func (m *Manager) Update(ctx context.Context, st *State) error {
	if st == nil {
		return ErrNoState
	}
	if err := m.store.Write(ctx, st); err != nil {
		return err
	}
	m.logger.Debug("updated session", "session_id", st.ID)
	return nil
}

func (m *Manager) create(ctx context.Context) (*State, error) {
	st := &State{
		ID:        uuid.NewString(),
		ExpiresAt: m.now().Add(m.ttl).UTC(),
		Data:      make(map[string]any),
		Fresh:     true,
	}
	if err := m.store.Write(ctx, st); err != nil {
		return nil, err
	}
	m.logger.Info("created session", "session_id", st.ID)
	return st, nil
}

type ctxKey struct{}

// WithState returns a context carrying st.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the state stored in ctx, or nil.
func FromContext(ctx context.Context) *State {
	st, _ := ctx.Value(ctxKey{}).(*State)
	return st
}
