// Package checkpoint provides durable key-value persistence of serialized
// session state, keyed by session id, with expiry. One checkpoint is
// "latest" per id; writing a new checkpoint replaces it (last-write-wins,
// no compare-and-swap). Callers that expect concurrent steps against the
// same session id must serialize them externally.
package checkpoint

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no checkpoint exists for the id or it
// has expired.
var ErrNotFound = errors.New("checkpoint not found")

const (
	keyPrefix = "wren:checkpoint:"
	keySuffix = ":latest"
)

// Key returns the namespaced storage key for a session id.
func Key(sessionID string) string {
	return keyPrefix + sessionID + keySuffix
}

// SessionIDFromKey reverses Key. Returns "" for foreign keys.
func SessionIDFromKey(key string) string {
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, keySuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), keySuffix)
}

// Store persists the latest serialized session state per session id.
type Store interface {
	// Put overwrites the latest state for the id and resets its expiry.
	Put(ctx context.Context, sessionID string, state []byte, ttl time.Duration) error

	// Get returns the latest state, or ErrNotFound if absent or expired.
	Get(ctx context.Context, sessionID string) ([]byte, error)

	// ListActive returns the ids of all unexpired checkpoints.
	ListActive(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}

// TTLReporter is implemented by stores that can report remaining expiry,
// used by the sessions viewer.
type TTLReporter interface {
	TTLRemaining(ctx context.Context, sessionID string) (time.Duration, error)
}
