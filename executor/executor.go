// Package executor orchestrates one question→answer exchange end to end:
// budget admission, preamble injection, the backend reasoning pass,
// transcript persistence, and incremental fragment delivery.
//
//	exec := executor.New(be, store, composer, guard, estimator)
//	for frag := range exec.Run(ctx, sess, profile, question, lang) {
//		send(frag)
//	}
package executor

import (
	"context"
	"iter"
	"time"

	"github.com/worklaw/counsel/backend"
	"github.com/worklaw/counsel/compose"
	"github.com/worklaw/counsel/core/chat"
	"github.com/worklaw/counsel/observability"
	"github.com/worklaw/counsel/session"
	"github.com/worklaw/counsel/tokens"
	"github.com/worklaw/counsel/transcript"
)

const (
	// replyTokenCeiling bounds the backend's output per reasoning pass.
	replyTokenCeiling = 1000
	// fragmentSize is the reply chunk size in runes.
	fragmentSize = 200
	// fallbackReply substitutes for a reasoning pass that produced no
	// assistant turn.
	fallbackReply = "No response from assistant"
)

// Option configures an Executor after construction.
type Option func(*Executor)

// WithObserver overrides the default NoOpObserver.
func WithObserver(o observability.Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// Executor runs turns against a backend. It is stateless across turns;
// all per-identity state lives in the Session.
type Executor struct {
	backend   backend.Backend
	store     transcript.Store // nil disables persistence
	composer  *compose.Composer
	guard     *session.BudgetGuard
	estimator tokens.Estimator
	observer  observability.Observer
	now       func() time.Time
}

// New creates an Executor. store may be nil when persistence is disabled.
func New(b backend.Backend, store transcript.Store, composer *compose.Composer, guard *session.BudgetGuard, estimator tokens.Estimator, opts ...Option) *Executor {
	e := &Executor{
		backend:   b,
		store:     store,
		composer:  composer,
		guard:     guard,
		estimator: estimator,
		observer:  observability.NoOpObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one exchange and returns its fragment sequence. The
// sequence is lazy, finite, and single-pass: nothing happens until the
// caller starts iterating, and stopping early discards the remaining
// fragments without leaking the session lock or backend resources.
//
// The session lock is held for the full iteration, so turns for one
// identity serialize while other identities proceed in parallel. A
// budget rejection or any backend failure yields exactly one terminal
// Error fragment; a transcript failure is logged and never surfaces.
func (e *Executor) Run(ctx context.Context, sess *session.Session, profile compose.EmployeeProfile, question, languageTag string) iter.Seq[chat.Fragment] {
	return func(yield func(chat.Fragment) bool) {
		sess.Lock()
		defer sess.Unlock()

		e.emit(ctx, EventTurnStart, observability.LevelVerbose, map[string]any{
			"identity":          sess.Identity(),
			"question_length":   len(question),
			"cumulative_tokens": sess.CumulativeTokens(),
		})

		decision := e.guard.CheckBeforeSend(sess, question, 0)
		switch decision.Kind {
		case session.Reject:
			e.emit(ctx, EventTurnReject, observability.LevelInfo, map[string]any{
				"identity":          sess.Identity(),
				"cumulative_tokens": sess.CumulativeTokens(),
			})
			yield(chat.Errorf(decision.Message))
			return
		case session.ProceedWithWarning:
			e.emit(ctx, EventTurnWarn, observability.LevelInfo, map[string]any{
				"identity": sess.Identity(),
			})
			if !yield(chat.Warning(decision.Message)) {
				return
			}
		}

		sess.Touch(e.now())

		if preamble, due := e.composer.Compose(ctx, sess, profile, languageTag); due {
			if err := e.backend.AppendTurn(ctx, sess.Handle(), chat.RoleUser, preamble); err != nil {
				e.fail(ctx, sess, yield, "Assistant service unavailable: "+err.Error())
				return
			}
			sess.MarkContextInjected()
			sess.AddTokens(e.estimator.Estimate(preamble))
		}

		if err := e.backend.AppendTurn(ctx, sess.Handle(), chat.RoleUser, question); err != nil {
			e.fail(ctx, sess, yield, "Assistant service unavailable: "+err.Error())
			return
		}
		sess.AddTokens(e.estimator.Estimate(question))

		result, err := e.backend.Run(ctx, sess.Handle(), replyTokenCeiling)
		if err != nil {
			e.fail(ctx, sess, yield, "Assistant service unavailable: "+err.Error())
			return
		}
		if result.Failed {
			e.fail(ctx, sess, yield, result.FailureDetail)
			return
		}

		turns, err := e.backend.ListTurns(ctx, sess.Handle(), chat.OrderAscending)
		if err != nil {
			e.fail(ctx, sess, yield, "Assistant service unavailable: "+err.Error())
			return
		}

		reply, found := newestAssistantTurn(turns)
		if !found {
			reply = fallbackReply
		}
		sess.AddTokens(e.estimator.Estimate(reply))

		e.persist(ctx, sess.Identity(), question, reply)

		e.emit(ctx, EventTurnResponse, observability.LevelInfo, map[string]any{
			"identity":          sess.Identity(),
			"reply_length":      len(reply),
			"cumulative_tokens": sess.CumulativeTokens(),
		})

		for _, frag := range chat.SplitResponse(reply, fragmentSize) {
			if !yield(frag) {
				return
			}
		}
	}
}

// newestAssistantTurn selects the most recently created assistant turn.
// Selection is by CreatedAt, with later list position winning ties, so
// the result is correct whichever order the backend listed in.
func newestAssistantTurn(turns []chat.Turn) (string, bool) {
	best := -1
	for i, t := range turns {
		if t.Role != chat.RoleAssistant || t.Content == "" {
			continue
		}
		if best == -1 || !t.CreatedAt.Before(turns[best].CreatedAt) {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return turns[best].Content, true
}

// persist writes the exchange; failure is logged and swallowed so it
// never blocks the response.
func (e *Executor) persist(ctx context.Context, identity, question, reply string) {
	if e.store == nil {
		return
	}
	exchange := chat.NewExchange(e.now(), question, reply)
	if err := e.store.Append(ctx, identity, exchange); err != nil {
		e.emit(ctx, EventPersistError, observability.LevelWarning, map[string]any{
			"identity": identity,
			"error":    err.Error(),
		})
	}
}

func (e *Executor) fail(ctx context.Context, sess *session.Session, yield func(chat.Fragment) bool, message string) {
	e.emit(ctx, EventTurnError, observability.LevelError, map[string]any{
		"identity": sess.Identity(),
		"error":    message,
	})
	yield(chat.Errorf(message))
}

func (e *Executor) emit(ctx context.Context, eventType observability.EventType, level observability.Level, data map[string]any) {
	e.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: e.now(),
		Source:    "executor.Run",
		Data:      data,
	})
}
