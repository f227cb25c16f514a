// Package backend abstracts the remote conversational-AI service that
// owns conversation handles, accepts turns, and executes reasoning
// passes. The session core only ever talks to the Backend interface;
// adapters translate to a concrete provider.
package backend

import (
	"context"
	"errors"

	"github.com/worklaw/counsel/core/chat"
)

// Sentinel errors for backend operations.
var (
	// ErrUnavailable wraps transport-level failures: the backend could
	// not be reached or refused the call.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrInvalidHandle indicates the handle does not exist on the backend.
	ErrInvalidHandle = errors.New("invalid conversation handle")
)

// RunResult reports the outcome of one reasoning pass. A pass that the
// backend itself reports as failed sets Failed with the backend's detail;
// transport failures surface as errors from Run instead.
type RunResult struct {
	Failed        bool
	FailureDetail string
}

// Backend is the remote conversational-AI capability.
type Backend interface {
	// CreateHandle opens a new multi-turn conversation and returns its
	// backend-issued identifier.
	CreateHandle(ctx context.Context) (string, error)
	// AppendTurn adds a role-tagged message to the conversation.
	AppendTurn(ctx context.Context, handle string, role chat.Role, text string) error
	// Run executes one reasoning pass over the conversation, bounded by
	// replyTokenCeiling output tokens.
	Run(ctx context.Context, handle string, replyTokenCeiling int) (RunResult, error)
	// ListTurns returns the conversation's turns in the requested order.
	// Each turn carries CreatedAt so callers can select by true recency.
	ListTurns(ctx context.Context, handle string, order chat.ListOrder) ([]chat.Turn, error)
}
