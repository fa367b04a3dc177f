// internal/store/memory.go
//
// In-memory implementations of Sessions and KV.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Nothing expires here; the HTTP server deletes idle sessions
//     (SESSION_TTL_MIN). Progress KV entries are kept for the process lifetime.
//   - The session map is always memory-backed: a session owns a timer and an
//     engine, neither of which survives serialization.

package store

import (
	"context"
	"sync"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/game"
)

type memorySessions struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session // keyed by Session.ID
}

// NewMemorySessions constructs an in-memory Sessions store.
func NewMemorySessions() Sessions {
	return &memorySessions{sessions: make(map[string]*game.Session)}
}

func (m *memorySessions) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[s.ID]; ok && old != s {
		old.Close()
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memorySessions) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Close()
		delete(m.sessions, id)
	}
	return nil
}

type memoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV constructs an in-memory KV.
func NewMemoryKV() KV {
	return &memoryKV{values: make(map[string]string)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
