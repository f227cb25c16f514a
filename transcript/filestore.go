package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/worklaw/counsel/core/chat"
)

type fileStore struct {
	root string
}

// NewFileStore creates a Store backed by the filesystem. Each identity
// maps to a directory under root; each exchange is one JSON file named
// <unixnano>-<uuid>.json so lexicographic order matches write order and
// concurrent writers never collide.
func NewFileStore(root string) Store {
	return &fileStore{root: root}
}

func (s *fileStore) Append(_ context.Context, identity string, exchange chat.Exchange) error {
	dir := filepath.Join(s.root, sanitize(identity))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}

	data, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}

	name := fmt.Sprintf("%020d-%s.json", exchange.Timestamp.UnixNano(), uuid.NewString())
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}

	return nil
}

func (s *fileStore) ListRecent(_ context.Context, identity string, maxCount int) ([]chat.Exchange, error) {
	if maxCount <= 0 {
		return nil, nil
	}

	dir := filepath.Join(s.root, sanitize(identity))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	exchanges := make([]chat.Exchange, 0, maxCount)
	for _, name := range names {
		if len(exchanges) == maxCount {
			break
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
		}

		var exchange chat.Exchange
		if err := json.Unmarshal(data, &exchange); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, identity, err)
		}
		exchanges = append(exchanges, exchange)
	}

	return exchanges, nil
}

// sanitize keeps identities usable as directory names. Anything outside
// the portable filename alphabet becomes an underscore.
func sanitize(identity string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, identity)
}
