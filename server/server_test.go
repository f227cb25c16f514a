package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklaw/counsel/backend"
	"github.com/worklaw/counsel/core/chat"
	"github.com/worklaw/counsel/server"
	"github.com/worklaw/counsel/transcript"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// sseEvent mirrors the wire shape of one data line.
type sseEvent struct {
	Response string `json:"response"`
	Warning  string `json:"warning"`
	Error    string `json:"error"`
}

// decodeSSE parses every "data:" line of an event stream body.
func decodeSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, line := range strings.Split(body, "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev sseEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			t.Fatalf("data line %q is not valid JSON: %v", payload, err)
		}
		events = append(events, ev)
	}
	return events
}

func newTestService(t *testing.T, opts ...server.Option) *server.Service {
	t.Helper()
	cfg := server.DefaultConfig()
	svc, err := server.New(&cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return svc
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, server.AssistantPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func scripted(reply string) backend.Backend {
	return backend.NewMemoryBackend(func([]chat.Turn) (string, error) {
		return reply, nil
	})
}

func TestHandleAssistant_Unconfigured(t *testing.T) {
	svc := newTestService(t)
	w := post(svc.Router(), `{"employee_data":{"id":"emp-1"},"question":"q"}`)

	if w.Code != http.StatusOK {
		t.Errorf("got status %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "data: Service not configured\n\n" {
		t.Errorf("got body %q", got)
	}
}

func TestHandleAssistant_MissingFields(t *testing.T) {
	svc := newTestService(t, server.WithBackend(scripted("ok")))
	router := svc.Router()

	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"no question", `{"employee_data":{"id":"emp-1"}}`},
		{"empty question", `{"employee_data":{"id":"emp-1"},"question":""}`},
		{"no employee_data", `{"question":"q"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(router, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want 400", w.Code)
			}
			events := decodeSSE(t, w.Body.String())
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			if events[0].Error != "Invalid request - employee_data and question are required" {
				t.Errorf("got error %q", events[0].Error)
			}
		})
	}
}

func TestHandleAssistant_MissingID(t *testing.T) {
	svc := newTestService(t, server.WithBackend(scripted("ok")))
	w := post(svc.Router(), `{"employee_data":{"full_name":"Amira"},"question":"q"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", w.Code)
	}
	events := decodeSSE(t, w.Body.String())
	if len(events) != 1 || events[0].Error != "Employee data must contain an 'id' field" {
		t.Errorf("got events %+v", events)
	}
}

func TestHandleAssistant_StreamsReply(t *testing.T) {
	store := transcript.NewFileStore(t.TempDir())
	svc := newTestService(t,
		server.WithBackend(scripted("You are entitled to 30 days of annual leave.")),
		server.WithStore(store),
	)

	body := `{
		"employee_data": {"id": "emp-1", "full_name": "Amira Ben Salah", "contract_type": "CDI"},
		"question": "How much annual leave do I get?"
	}`
	w := post(svc.Router(), body)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("got Content-Type %q, want text/event-stream", ct)
	}

	events := decodeSSE(t, w.Body.String())
	if len(events) == 0 {
		t.Fatal("no events in stream")
	}
	var b strings.Builder
	for _, ev := range events {
		if ev.Error != "" || ev.Warning != "" {
			t.Fatalf("unexpected non-response event %+v", ev)
		}
		b.WriteString(ev.Response)
	}
	if got := b.String(); got != "You are entitled to 30 days of annual leave." {
		t.Errorf("responses concatenate to %q", got)
	}

	// The exchange lands in the transcript store.
	persisted, err := store.ListRecent(context.Background(), "emp-1", 1)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("got %d persisted exchanges, want 1", len(persisted))
	}
}

func TestHandleAssistant_LongReplyFragments(t *testing.T) {
	svc := newTestService(t, server.WithBackend(scripted(strings.Repeat("a", 450))))
	w := post(svc.Router(), `{"employee_data":{"id":"emp-1"},"question":"q"}`)

	events := decodeSSE(t, w.Body.String())
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if len(events[0].Response) != 200 || len(events[2].Response) != 50 {
		t.Errorf("got fragment sizes %d/%d/%d, want 200/200/50",
			len(events[0].Response), len(events[1].Response), len(events[2].Response))
	}
}

func TestHandleAssistant_BudgetRejection(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.Session.MaxTokens = 100
	cfg.Session.WarnTokens = 90

	svc, err := server.New(&cfg, server.WithBackend(scripted("never")))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	w := post(svc.Router(), `{"employee_data":{"id":"emp-1"},"question":"q"}`)

	events := decodeSSE(t, w.Body.String())
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if !strings.Contains(events[0].Error, "conversation limit") {
		t.Errorf("got error %q, want a limit rejection", events[0].Error)
	}
}

func TestHandleAssistant_SessionReuse(t *testing.T) {
	var calls int
	be := backend.NewMemoryBackend(func(turns []chat.Turn) (string, error) {
		calls++
		return "answer", nil
	})
	svc := newTestService(t, server.WithBackend(be))
	router := svc.Router()

	body := `{"employee_data":{"id":"emp-1"},"question":"q"}`
	post(router, body)
	post(router, body)

	if calls != 2 {
		t.Errorf("backend ran %d times, want 2", calls)
	}
}

func TestSweepIdle_Unconfigured(t *testing.T) {
	svc := newTestService(t)
	if got := svc.SweepIdle(time.Now()); got != nil {
		t.Errorf("got evicted %v from an unconfigured service, want none", got)
	}
}
