package transcript_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/worklaw/counsel/core/chat"
	"github.com/worklaw/counsel/transcript"
)

func TestFileStore_AppendAndListRecent(t *testing.T) {
	store := transcript.NewFileStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, q := range []string{"first", "second", "third"} {
		ex := chat.NewExchange(base.Add(time.Duration(i)*time.Minute), q, "reply to "+q)
		if err := store.Append(ctx, "emp-1", ex); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := store.ListRecent(ctx, "emp-1", 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d exchanges, want 2", len(got))
	}

	// Newest first.
	if got[0].Messages[0].Content != "third" {
		t.Errorf("got newest question %q, want %q", got[0].Messages[0].Content, "third")
	}
	if got[1].Messages[0].Content != "second" {
		t.Errorf("got second question %q, want %q", got[1].Messages[0].Content, "second")
	}
}

func TestFileStore_ListRecent_NoHistory(t *testing.T) {
	store := transcript.NewFileStore(t.TempDir())

	got, err := store.ListRecent(context.Background(), "never-seen", 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d exchanges for unknown identity, want 0", len(got))
	}
}

func TestFileStore_ListRecent_ZeroCount(t *testing.T) {
	store := transcript.NewFileStore(t.TempDir())

	got, err := store.ListRecent(context.Background(), "emp-1", 0)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if got != nil {
		t.Errorf("got %d exchanges for maxCount 0, want none", len(got))
	}
}

func TestFileStore_IdentityIsolation(t *testing.T) {
	store := transcript.NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := store.Append(ctx, "emp-1", chat.NewExchange(time.Now(), "q1", "a1")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, "emp-2", chat.NewExchange(time.Now(), "q2", "a2")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.ListRecent(ctx, "emp-1", 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d exchanges, want 1", len(got))
	}
	if got[0].Messages[0].Content != "q1" {
		t.Errorf("got question %q, want %q", got[0].Messages[0].Content, "q1")
	}
}

func TestFileStore_RecordFormat(t *testing.T) {
	root := t.TempDir()
	store := transcript.NewFileStore(root)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Append(ctx, "emp-9", chat.NewExchange(ts, "question", "answer")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "emp-9"))
	if err != nil {
		t.Fatalf("reading identity dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files, want 1", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(root, "emp-9", entries[0].Name()))
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}

	var record struct {
		Timestamp time.Time `json:"timestamp"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}

	if !record.Timestamp.Equal(ts) {
		t.Errorf("got timestamp %v, want %v", record.Timestamp, ts)
	}
	if len(record.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(record.Messages))
	}
	if record.Messages[0].Role != "user" || record.Messages[1].Role != "assistant" {
		t.Errorf("got roles %q/%q, want user/assistant", record.Messages[0].Role, record.Messages[1].Role)
	}
}

func TestFileStore_SanitizesIdentity(t *testing.T) {
	root := t.TempDir()
	store := transcript.NewFileStore(root)
	ctx := context.Background()

	if err := store.Append(ctx, "../escape/attempt", chat.NewExchange(time.Now(), "q", "a")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := store.ListRecent(ctx, "../escape/attempt", 1)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d exchanges, want 1", len(got))
	}

	// Nothing may have been written outside the root.
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape")); !os.IsNotExist(err) {
		t.Error("identity with path separators escaped the store root")
	}
}

func TestNewStore_FromConfig(t *testing.T) {
	cfg := transcript.DefaultConfig()

	store, err := transcript.NewStore(&cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store != nil {
		t.Error("empty path should disable persistence, got non-nil store")
	}

	cfg.Path = t.TempDir()
	store, err = transcript.NewStore(&cfg)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store == nil {
		t.Fatal("NewStore returned nil store for a configured path")
	}
}
