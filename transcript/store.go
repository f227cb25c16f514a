// Package transcript persists conversation exchanges as an append-only,
// per-identity log and serves the most recent entries back for history
// replay. Implementations are stateless — they perform I/O on each call
// without caching.
package transcript

import (
	"context"
	"errors"

	"github.com/worklaw/counsel/core/chat"
)

// ErrStorageUnavailable wraps any failure to reach the underlying storage.
// Callers are expected to degrade: history reads substitute an empty
// history, writes are logged and dropped.
var ErrStorageUnavailable = errors.New("transcript storage unavailable")

// Store is the append-only per-identity exchange log.
type Store interface {
	// Append durably writes one exchange under the identity. Records are
	// immutable once written.
	Append(ctx context.Context, identity string, exchange chat.Exchange) error
	// ListRecent returns up to maxCount exchanges for the identity,
	// newest first. An identity with no history yields an empty slice,
	// not an error.
	ListRecent(ctx context.Context, identity string, maxCount int) ([]chat.Exchange, error)
}
