// Package observability carries structured events from the session
// service's subsystems to whatever sink is configured: a slog logger in
// the daemon, a capturing observer in tests, or nothing at all.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is event severity on the OpenTelemetry SeverityNumber scale, so
// events can be handed to an OTel collector without renumbering.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG range (5-8)
	LevelInfo    Level = 9  // OTel INFO range (9-12)
	LevelWarning Level = 13 // OTel WARN range (13-16)
	LevelError   Level = 17 // OTel ERROR range (17-20)
)

// String returns the OTel severity text for the level's range.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel collapses the level onto the four slog levels. TRACE folds
// into Debug and FATAL into Error, matching how slog handlers filter.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names what happened. Each subsystem declares its own
// constants ("turn.start", "session.evict") next to the code that emits
// them.
type EventType string

// Event is one emitted occurrence. The fields line up with an OTel
// LogRecord: Type is the event name, Level the severity number, Source
// the instrumentation scope, and Data the attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer is the sink side of the event stream.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// NoOpObserver discards every event. The default wherever no observer is
// configured.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}

// MultiObserver forwards each event to a fixed set of sinks in order.
type MultiObserver struct {
	sinks []Observer
}

// NewMultiObserver builds a MultiObserver from the non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	sinks := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			sinks = append(sinks, obs)
		}
	}
	return &MultiObserver{sinks: sinks}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.sinks {
		obs.OnEvent(ctx, event)
	}
}
