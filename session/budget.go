package session

import (
	"fmt"

	"github.com/worklaw/counsel/tokens"
)

// DecisionKind classifies a budget admission outcome.
type DecisionKind int

const (
	Proceed DecisionKind = iota
	ProceedWithWarning
	Reject
)

// Decision is the budget guard's verdict on an incoming turn. Message is
// set for warnings and rejections and is phrased for the end user.
type Decision struct {
	Kind    DecisionKind
	Message string
}

// BudgetGuard is the pre-admission token gate. It runs before any
// backend call, so a rejection never costs a backend turn. The actual
// reply cost is only added to the session after the reply arrives, which
// means the cumulative total can legitimately end above the maximum —
// the guard bounds admission, it is not a mid-turn cap.
type BudgetGuard struct {
	maxTokens    int
	warnTokens   int
	replyReserve int
	estimator    tokens.Estimator
}

// NewBudgetGuard creates a guard with the configured thresholds.
func NewBudgetGuard(cfg *Config, estimator tokens.Estimator) *BudgetGuard {
	return &BudgetGuard{
		maxTokens:    cfg.MaxTokens,
		warnTokens:   cfg.WarnTokens,
		replyReserve: cfg.ReplyReserve,
		estimator:    estimator,
	}
}

// CheckBeforeSend decides whether the incoming text may be sent.
// reservedReplyTokens <= 0 selects the configured default reserve.
// Caller must hold the session lock.
func (g *BudgetGuard) CheckBeforeSend(s *Session, incomingText string, reservedReplyTokens int) Decision {
	if reservedReplyTokens <= 0 {
		reservedReplyTokens = g.replyReserve
	}

	if s.CumulativeTokens() >= g.maxTokens {
		return Decision{
			Kind:    Reject,
			Message: "Conversation limit reached. Please start a new conversation.",
		}
	}

	projected := s.CumulativeTokens() + g.estimator.Estimate(incomingText) + reservedReplyTokens
	if projected > g.maxTokens {
		return Decision{
			Kind:    Reject,
			Message: "This question would exceed the conversation limit. Please start a new conversation.",
		}
	}

	if projected > g.warnTokens && !s.warnedAtThreshold {
		s.warnedAtThreshold = true
		return Decision{
			Kind:    ProceedWithWarning,
			Message: fmt.Sprintf("Approaching conversation limit: %d of %d tokens.", projected, g.maxTokens),
		}
	}

	return Decision{Kind: Proceed}
}
