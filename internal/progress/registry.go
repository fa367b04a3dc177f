package progress

import (
	"context"
	"sync"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/store"
)

// Registry caches one Tracker per player over a shared KV.
type Registry struct {
	kv       store.KV
	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewRegistry(kv store.KV) *Registry {
	return &Registry{kv: kv, trackers: make(map[string]*Tracker)}
}

// For returns the player's tracker, loading it on first use.
func (r *Registry) For(ctx context.Context, playerID string) (*Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trackers[playerID]; ok {
		return t, nil
	}
	t, err := Load(ctx, r.kv, playerID)
	if err != nil {
		return nil, err
	}
	r.trackers[playerID] = t
	return t, nil
}

// Claim merges the progress of fromID into toID.
func (r *Registry) Claim(ctx context.Context, fromID, toID string) (Snapshot, error) {
	from, err := r.For(ctx, fromID)
	if err != nil {
		return Snapshot{}, err
	}
	to, err := r.For(ctx, toID)
	if err != nil {
		return Snapshot{}, err
	}
	if from == to {
		return to.Snapshot(), nil
	}
	return to.Merge(ctx, from.Snapshot()), nil
}
