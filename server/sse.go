package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/worklaw/counsel/core/chat"
)

// event is one server-push payload. Exactly one field is ever set, so
// the marshalled object carries exactly one of the three keys.
type event struct {
	Response string `json:"response,omitempty"`
	Warning  string `json:"warning,omitempty"`
	Error    string `json:"error,omitempty"`
}

func fragmentEvent(frag chat.Fragment) event {
	switch frag.Kind {
	case chat.FragmentWarning:
		return event{Warning: frag.Text}
	case chat.FragmentError:
		return event{Error: frag.Text}
	default:
		return event{Response: frag.Text}
	}
}

// sseWriter writes server-sent events and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &sseWriter{w: w, flusher: flusher}, nil
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// writeEvent marshals the event as one SSE data line.
func (s *sseWriter) writeEvent(ev event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.writeRaw(string(data))
}

// writeRaw writes a pre-rendered data payload.
func (s *sseWriter) writeRaw(payload string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
