package chat

import "time"

// Exchange is one question/answer pair, the unit of persistence. It is
// immutable once written: Messages always holds the user turn followed by
// the assistant turn.
type Exchange struct {
	Timestamp time.Time `json:"timestamp"`
	Messages  []Turn    `json:"messages"`
}

// NewExchange creates an Exchange from a question and its reply, stamped
// with the given time.
func NewExchange(ts time.Time, question, reply string) Exchange {
	return Exchange{
		Timestamp: ts,
		Messages: []Turn{
			NewTurn(RoleUser, question),
			NewTurn(RoleAssistant, reply),
		},
	}
}

// Last returns the final message of the exchange (the assistant reply for
// a well-formed record) and false when the exchange is empty.
func (e Exchange) Last() (Turn, bool) {
	if len(e.Messages) == 0 {
		return Turn{}, false
	}
	return e.Messages[len(e.Messages)-1], true
}
