package executor

import "github.com/worklaw/counsel/observability"

// Executor event types emitted during a turn.
const (
	EventTurnStart    observability.EventType = "turn.start"
	EventTurnReject   observability.EventType = "turn.reject"
	EventTurnWarn     observability.EventType = "turn.warn"
	EventTurnResponse observability.EventType = "turn.response"
	EventTurnError    observability.EventType = "turn.error"
	EventPersistError observability.EventType = "turn.persist.error"
)
