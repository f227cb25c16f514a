// Package session owns the per-identity conversation state machine: the
// registry mapping identities to durable conversation handles, the token
// budget guard, and idle eviction.
package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Session is the mutable state for one identity's conversation. It is a
// single-writer resource: callers hold the embedded mutex for the whole
// of a logical exchange, so at most one turn per identity is in flight
// and field access needs no further synchronization. LastActivity is
// kept atomically so the idle sweep can read it without contending with
// an in-flight turn.
type Session struct {
	sync.Mutex

	identity string
	handle   string // backend handle; set at most once

	contextInjected   bool
	cumulativeTokens  int
	warnedAtThreshold bool

	lastActivity atomic.Int64 // unix nanoseconds
}

func newSession(identity string, now time.Time) *Session {
	s := &Session{identity: identity}
	s.lastActivity.Store(now.UnixNano())
	return s
}

// Identity returns the opaque external key this session belongs to.
func (s *Session) Identity() string { return s.identity }

// Handle returns the backend conversation handle. Caller must hold the
// session lock.
func (s *Session) Handle() string { return s.handle }

// ContextInjected reports whether the contextual preamble has been sent
// at least once. Caller must hold the session lock.
func (s *Session) ContextInjected() bool { return s.contextInjected }

// MarkContextInjected records that the preamble has been sent. Caller
// must hold the session lock.
func (s *Session) MarkContextInjected() { s.contextInjected = true }

// CumulativeTokens returns the running token total for this handle's
// lifetime. Caller must hold the session lock.
func (s *Session) CumulativeTokens() int { return s.cumulativeTokens }

// AddTokens increases the running total. Negative deltas are ignored so
// the total is monotonically non-decreasing. Caller must hold the
// session lock.
func (s *Session) AddTokens(n int) {
	if n > 0 {
		s.cumulativeTokens += n
	}
}

// Touch records activity at the given time. Safe without the session lock.
func (s *Session) Touch(now time.Time) {
	s.lastActivity.Store(now.UnixNano())
}

// LastActivity returns the time of the most recent exchange attempt.
// Safe without the session lock.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}
