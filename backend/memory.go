package backend

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/worklaw/counsel/core/chat"
)

// Responder produces an assistant reply from the conversation so far.
// Returning an error marks the reasoning pass as failed with the error
// text as detail.
type Responder func(turns []chat.Turn) (string, error)

// MemoryBackend is an in-process Backend holding conversations in a map.
// It backs tests and local development; replies come from a pluggable
// Responder. Safe for concurrent use.
type MemoryBackend struct {
	mu            sync.Mutex
	conversations map[string][]chat.Turn
	respond       Responder
	now           func() time.Time
}

// NewMemoryBackend creates a MemoryBackend. A nil responder echoes the
// latest user turn.
func NewMemoryBackend(respond Responder) *MemoryBackend {
	if respond == nil {
		respond = func(turns []chat.Turn) (string, error) {
			for i := len(turns) - 1; i >= 0; i-- {
				if turns[i].Role == chat.RoleUser {
					return "echo: " + turns[i].Content, nil
				}
			}
			return "echo", nil
		}
	}
	return &MemoryBackend{
		conversations: make(map[string][]chat.Turn),
		respond:       respond,
		now:           time.Now,
	}
}

func (b *MemoryBackend) CreateHandle(_ context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handle := uuid.Must(uuid.NewV7()).String()
	b.conversations[handle] = nil
	return handle, nil
}

func (b *MemoryBackend) AppendTurn(_ context.Context, handle string, role chat.Role, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns, ok := b.conversations[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, handle)
	}
	b.conversations[handle] = append(turns, chat.Turn{
		Role:      role,
		Content:   text,
		CreatedAt: b.now(),
	})
	return nil
}

func (b *MemoryBackend) Run(_ context.Context, handle string, _ int) (RunResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns, ok := b.conversations[handle]
	if !ok {
		return RunResult{}, fmt.Errorf("%w: %s", ErrInvalidHandle, handle)
	}

	reply, err := b.respond(slices.Clone(turns))
	if err != nil {
		return RunResult{Failed: true, FailureDetail: err.Error()}, nil
	}

	b.conversations[handle] = append(turns, chat.Turn{
		Role:      chat.RoleAssistant,
		Content:   reply,
		CreatedAt: b.now(),
	})
	return RunResult{}, nil
}

func (b *MemoryBackend) ListTurns(_ context.Context, handle string, order chat.ListOrder) ([]chat.Turn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	turns, ok := b.conversations[handle]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, handle)
	}

	copied := slices.Clone(turns)
	if order == chat.OrderDescending {
		slices.Reverse(copied)
	}
	return copied, nil
}
