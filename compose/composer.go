package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/worklaw/counsel/core/chat"
	"github.com/worklaw/counsel/language"
	"github.com/worklaw/counsel/observability"
	"github.com/worklaw/counsel/session"
	"github.com/worklaw/counsel/transcript"
)

// historyDepth is the number of recent exchanges replayed into the
// preamble when history exists.
const historyDepth = 2

// EventHistoryError is emitted when a history fetch fails and the
// composer degrades to an empty history.
const EventHistoryError observability.EventType = "compose.history.error"

// Composer decides whether a contextual preamble is due this exchange
// and builds it. Injection is due on a session's first exchange, and
// again whenever persisted history exists — the backend never re-reads
// the store itself, so fresh history has to be folded back in.
type Composer struct {
	store    transcript.Store // nil disables history replay
	observer observability.Observer
}

// NewComposer creates a Composer reading history from the given store.
func NewComposer(store transcript.Store, observer observability.Observer) *Composer {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Composer{store: store, observer: observer}
}

// Compose returns the preamble to inject as a user turn and true when
// injection is due, or "" and false otherwise. A history fetch failure
// is logged and treated as no history. Caller must hold the session lock.
func (c *Composer) Compose(ctx context.Context, sess *session.Session, profile EmployeeProfile, languageTag string) (string, bool) {
	history := c.recentHistory(ctx, sess.Identity())

	if sess.ContextInjected() && len(history) == 0 {
		return "", false
	}

	return buildPreamble(profile, languageTag, history), true
}

func (c *Composer) recentHistory(ctx context.Context, identity string) []chat.Exchange {
	if c.store == nil {
		return nil
	}

	history, err := c.store.ListRecent(ctx, identity, historyDepth)
	if err != nil {
		c.observer.OnEvent(ctx, observability.Event{
			Type:      EventHistoryError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "compose.Composer",
			Data: map[string]any{
				"identity": identity,
				"error":    err.Error(),
			},
		})
		return nil
	}
	return history
}

// buildPreamble renders the employee facts block, the standing
// instruction list, and the history excerpt. Field order is fixed.
func buildPreamble(p EmployeeProfile, languageTag string, history []chat.Exchange) string {
	var b strings.Builder

	b.WriteString("EMPLOYEE LEGAL CONTEXT (use for all responses):\n")
	fmt.Fprintf(&b, "- ID: %s\n", p.ID)
	fmt.Fprintf(&b, "- Full Name: %s\n", p.FullName)
	fmt.Fprintf(&b, "- CIN: %s (issued %s in %s)\n", p.CIN, p.CINDate, p.CINPlace)
	fmt.Fprintf(&b, "- Contract: %s (%s)\n", p.ContractType, p.EmploymentType)
	fmt.Fprintf(&b, "- Salary: %s TND (Brut: %s TND)\n", p.NetSalary, p.BrutSalary)
	fmt.Fprintf(&b, "- Seniority: %s months (since %s)\n", p.SeniorityMonths, p.DateOfStart)
	fmt.Fprintf(&b, "- Profession: %s\n", p.Profession)
	fmt.Fprintf(&b, "- CNSS: %s\n", p.CNSSNumber)
	fmt.Fprintf(&b, "- Status: %s, %s\n", p.MaritalStatus, p.Nationality)

	b.WriteString("When answering, always consider:\n")
	b.WriteString("1. Tunisian Labor Code provisions\n")
	b.WriteString("2. The employee's specific contract terms\n")
	b.WriteString("3. Their seniority and salary level\n")
	b.WriteString("4. Any other relevant factors from their profile\n")
	fmt.Fprintf(&b, "5. Reply in %s", language.Name(languageTag))

	if len(history) > 0 {
		b.WriteString("\nRecent conversation history:")
		// ListRecent is newest first; replay in chronological order.
		for i := len(history) - 1; i >= 0; i-- {
			last, ok := history[i].Last()
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "\n%s: %s", strings.ToUpper(string(last.Role)), last.Content)
		}
	}

	return b.String()
}
