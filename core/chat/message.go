// Package chat defines the shared conversation vocabulary: roles, turns,
// persisted exchanges, and the fragments streamed back to callers.
package chat

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message appended to a conversation handle.
// CreatedAt is the backend's recency indicator; consumers select the
// newest turn by timestamp, never by list position.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// NewTurn creates a Turn with the given role and content.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// ListOrder controls the direction in which backends list turns.
type ListOrder string

const (
	OrderAscending  ListOrder = "asc"
	OrderDescending ListOrder = "desc"
)
