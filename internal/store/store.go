// internal/store/store.go
//
// Persistence contracts shared by the HTTP layer and the progress tracker.
//   - Sessions: live puzzle sessions keyed by ID (process memory only).
//   - KV: small string values keyed by name (progress snapshots). Backed by
//     memory, SQLite, Postgres or Redis.

package store

import (
	"context"
	"errors"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/game"
)

// ErrNotFound is returned by Sessions.Get for unknown IDs.
var ErrNotFound = errors.New("not found")

// Sessions keeps live puzzle sessions.
type Sessions interface {
	// Save persists or replaces a session under its ID.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete drops a session and cancels its pending work.
	Delete(ctx context.Context, id string) error
}

// KV is a string key/value store.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set creates or overwrites the key.
	Set(ctx context.Context, key, value string) error
}
