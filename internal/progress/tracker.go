// internal/progress/tracker.go
//
// Per-player solving progress.
//
// Rules:
//   - Only the first completion of a puzzle counts. Replaying a solved
//     puzzle changes nothing.
//   - TotalAttempts counts distinct solved puzzles, CorrectOnFirstTry the
//     subset solved without any wrong move.
//   - Every change is written to the KV as JSON under "progress:<player>".
//     Write failures are logged and otherwise ignored.

package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/store"
)

// Snapshot is the persisted form of a tracker.
type Snapshot struct {
	Solved            []string `json:"solved"`
	FirstTry          []string `json:"firstTry"`
	TotalAttempts     int      `json:"totalAttempts"`
	CorrectOnFirstTry int      `json:"correctOnFirstTry"`
}

// Summary is what the progress panel shows.
type Summary struct {
	SolvedCount     int `json:"solvedCount"`
	TotalCount      int `json:"totalCount"`
	AccuracyPercent int `json:"accuracyPercent"`
}

// Tracker accumulates one player's progress.
type Tracker struct {
	mu       sync.Mutex
	kv       store.KV
	key      string
	solved   map[string]bool // puzzle id -> solved on first try
	snapshot Snapshot
}

// Key is the KV key of a player's progress.
func Key(playerID string) string { return "progress:" + playerID }

// Load reads a player's tracker from kv. A missing key yields an empty
// tracker.
func Load(ctx context.Context, kv store.KV, playerID string) (*Tracker, error) {
	t := &Tracker{kv: kv, key: Key(playerID), solved: make(map[string]bool)}
	raw, ok, err := kv.Get(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("load progress %s: %w", playerID, err)
	}
	if !ok {
		return t, nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode progress %s: %w", playerID, err)
	}
	t.absorb(snap)
	return t, nil
}

// RecordCompletion registers a solved puzzle and returns the new state.
// counted is true only for the call that recorded the puzzle's first
// completion, so concurrent solves of one puzzle count once.
func (t *Tracker) RecordCompletion(ctx context.Context, puzzleID string, firstAttempt bool) (snap Snapshot, counted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, done := t.solved[puzzleID]; done {
		return t.copyLocked(), false
	}
	t.addLocked(puzzleID, firstAttempt)
	t.persistLocked(ctx)
	return t.copyLocked(), true
}

// Merge folds other into t, e.g. an anonymous player's progress claimed by
// an account. Puzzles already solved by t keep t's result.
func (t *Tracker) Merge(ctx context.Context, other Snapshot) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	first := make(map[string]bool, len(other.FirstTry))
	for _, id := range other.FirstTry {
		first[id] = true
	}
	changed := false
	for _, id := range other.Solved {
		if _, done := t.solved[id]; done {
			continue
		}
		t.addLocked(id, first[id])
		changed = true
	}
	if changed {
		t.persistLocked(ctx)
	}
	return t.copyLocked()
}

// IsSolved reports whether puzzleID was completed before.
func (t *Tracker) IsSolved(puzzleID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.solved[puzzleID]
	return ok
}

// Accuracy is the share of puzzles solved on the first try, 0 with none.
func (t *Tracker) Accuracy() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accuracyLocked()
}

// Summary reports progress against a catalog of total puzzles.
func (t *Tracker) Summary(total int) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		SolvedCount:     len(t.snapshot.Solved),
		TotalCount:      total,
		AccuracyPercent: int(math.Round(t.accuracyLocked() * 100)),
	}
}

// Snapshot returns a copy of the tracker state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copyLocked()
}

func (t *Tracker) absorb(snap Snapshot) {
	first := make(map[string]bool, len(snap.FirstTry))
	for _, id := range snap.FirstTry {
		first[id] = true
	}
	for _, id := range snap.Solved {
		if _, dup := t.solved[id]; !dup {
			t.addLocked(id, first[id])
		}
	}
}

func (t *Tracker) addLocked(id string, firstAttempt bool) {
	t.solved[id] = firstAttempt
	t.snapshot.Solved = append(t.snapshot.Solved, id)
	t.snapshot.TotalAttempts++
	if firstAttempt {
		t.snapshot.FirstTry = append(t.snapshot.FirstTry, id)
		t.snapshot.CorrectOnFirstTry++
	}
}

func (t *Tracker) accuracyLocked() float64 {
	if t.snapshot.TotalAttempts == 0 {
		return 0
	}
	return float64(t.snapshot.CorrectOnFirstTry) / float64(t.snapshot.TotalAttempts)
}

func (t *Tracker) copyLocked() Snapshot {
	out := t.snapshot
	out.Solved = append([]string{}, t.snapshot.Solved...)
	out.FirstTry = append([]string{}, t.snapshot.FirstTry...)
	return out
}

func (t *Tracker) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(t.snapshot)
	if err == nil {
		err = t.kv.Set(ctx, t.key, string(raw))
	}
	if err != nil {
		log.Warn().Err(err).Str("key", t.key).Msg("progress not saved")
	}
}
