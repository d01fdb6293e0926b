package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Registry holds live sessions and expires idle ones.
type Registry struct {
	sessions *cache.Cache
	ttl      time.Duration
	opts     []SessionOption
}

// NewRegistry creates a registry whose sessions are built with opts.
// A non-positive ttl selects DefaultSessionTTL.
func NewRegistry(ttl time.Duration, opts ...SessionOption) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, _ interface{}) {
		slog.Debug("Registry: session expired", "sessionID", id)
	})
	slog.Debug("Creating Registry", "ttl", ttl)
	return &Registry{sessions: c, ttl: ttl, opts: opts}
}

// Create starts a new session and posts its welcome message.
func (r *Registry) Create(extra ...SessionOption) (*Session, error) {
	id := uuid.NewString()
	s, err := NewSession(id, append(append([]SessionOption(nil), r.opts...), extra...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.Start()
	r.sessions.Set(id, s, cache.DefaultExpiration)
	slog.Info("Registry.Create", "sessionID", id)
	return s, nil
}

// Get returns the session with id and extends its lifetime.
func (r *Registry) Get(id string) (*Session, error) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s := v.(*Session)
	r.sessions.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Delete removes the session with id.
func (r *Registry) Delete(id string) error {
	if _, ok := r.sessions.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	r.sessions.Delete(id)
	slog.Info("Registry.Delete", "sessionID", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}
