package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/worklaw/counsel/backend"
	"github.com/worklaw/counsel/observability"
)

// Registry event types.
const (
	EventSessionCreate observability.EventType = "session.create"
	EventSessionEvict  observability.EventType = "session.evict"
)

// Option configures a Registry after construction.
type Option func(*Registry)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// Registry is the process-wide mapping from identity to session state.
// The registry's own lock only guards the map; handle creation for a
// fresh identity is serialized on the new session's lock so simultaneous
// first contacts for one identity create exactly one backend handle while
// other identities proceed in parallel.
type Registry struct {
	mu       sync.Mutex // guards the map only, never held across I/O
	sessions map[string]*Session
	backend  backend.Backend
	observer observability.Observer
	now      func() time.Time
}

// NewRegistry creates an empty Registry bound to the given backend.
func NewRegistry(b backend.Backend, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		backend:  b,
		observer: observability.NoOpObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the session for the identity, creating it — and
// its backend handle, exactly once — on first contact. A handle-creation
// failure registers nothing: the failed entry is dropped before its lock
// is released, so callers that were queued behind the failure observe
// the drop and restart from the map rather than adopting the orphan.
func (r *Registry) GetOrCreate(ctx context.Context, identity string) (*Session, error) {
	for {
		r.mu.Lock()
		s, ok := r.sessions[identity]
		if !ok {
			s = newSession(identity, r.now())
			r.sessions[identity] = s
		}
		r.mu.Unlock()

		s.Touch(r.now())

		s.Lock()
		if s.handle != "" {
			s.Unlock()
			return s, nil
		}
		if !r.registered(identity, s) {
			// Dropped while we waited on its lock; start over.
			s.Unlock()
			continue
		}

		handle, err := r.backend.CreateHandle(ctx)
		if err != nil {
			r.drop(identity, s)
			s.Unlock()
			return nil, fmt.Errorf("create handle for %s: %w", identity, err)
		}
		s.handle = handle
		s.Unlock()

		r.observer.OnEvent(ctx, observability.Event{
			Type:      EventSessionCreate,
			Level:     observability.LevelInfo,
			Timestamp: r.now(),
			Source:    "session.Registry",
			Data: map[string]any{
				"identity": identity,
				"handle":   handle,
			},
		})

		return s, nil
	}
}

// registered reports whether s is still the registry's entry for the
// identity. Caller must hold the session lock.
func (r *Registry) registered(identity string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[identity] == s
}

// drop removes the entry only if it is still the same handle-less
// session; a concurrent successful creation is left alone. Caller must
// hold the session lock so queued waiters cannot acquire it between the
// failed creation and the removal.
func (r *Registry) drop(identity string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[identity]; ok && current == s {
		delete(r.sessions, identity)
	}
}

// SweepIdle removes every session idle longer than maxIdle relative to
// now and returns the evicted identities. Eviction forgets the in-memory
// state only: persisted transcripts remain, and the next contact for an
// evicted identity gets a fresh backend handle.
func (r *Registry) SweepIdle(now time.Time, maxIdle time.Duration) []string {
	cutoff := now.Add(-maxIdle)

	r.mu.Lock()
	var evicted []string
	for identity, s := range r.sessions {
		if s.LastActivity().Before(cutoff) {
			delete(r.sessions, identity)
			evicted = append(evicted, identity)
		}
	}
	r.mu.Unlock()

	for _, identity := range evicted {
		r.observer.OnEvent(context.Background(), observability.Event{
			Type:      EventSessionEvict,
			Level:     observability.LevelInfo,
			Timestamp: now,
			Source:    "session.Registry",
			Data:      map[string]any{"identity": identity},
		})
	}
	return evicted
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
