package observability

import (
	"context"
	"log/slog"
)

// SlogObserver bridges events into a slog.Logger: the event type is the
// message, the source and Data keys become flat attributes. Severity
// translation goes through Level.SlogLevel, so handler level filtering
// applies as usual.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	level := event.Level.SlogLevel()
	if !o.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(event.Data)+1)
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}
	attrs = append(attrs, slog.String("source", event.Source))

	o.logger.LogAttrs(ctx, level, string(event.Type), attrs...)
}
