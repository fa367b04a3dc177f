package progress

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/store"
)

type failingKV struct{ store.KV }

func (failingKV) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestRecordCompletionCountsFirstSolveOnly(t *testing.T) {
	ctx := context.Background()
	tr, err := Load(ctx, store.NewMemoryKV(), "p1")
	require.NoError(t, err)

	snap, counted := tr.RecordCompletion(ctx, "puzzle-1", true)
	assert.True(t, counted)
	assert.Equal(t, 1, snap.TotalAttempts)
	assert.Equal(t, 1, snap.CorrectOnFirstTry)

	snap, counted = tr.RecordCompletion(ctx, "puzzle-2", false)
	assert.True(t, counted)
	assert.Equal(t, 2, snap.TotalAttempts)
	assert.Equal(t, 1, snap.CorrectOnFirstTry)

	// repeats are no-ops, whatever the outcome
	again, counted := tr.RecordCompletion(ctx, "puzzle-2", true)
	assert.False(t, counted)
	assert.Equal(t, snap, again)
	again, counted = tr.RecordCompletion(ctx, "puzzle-1", false)
	assert.False(t, counted)
	assert.Equal(t, snap, again)

	assert.True(t, tr.IsSolved("puzzle-1"))
	assert.False(t, tr.IsSolved("puzzle-3"))
	assert.InDelta(t, 0.5, tr.Accuracy(), 1e-9)
	assert.Equal(t, Summary{SolvedCount: 2, TotalCount: 10, AccuracyPercent: 50}, tr.Summary(10))
}

func TestAccuracyWithoutAttempts(t *testing.T) {
	tr, err := Load(context.Background(), store.NewMemoryKV(), "p1")
	require.NoError(t, err)
	assert.Zero(t, tr.Accuracy())
	assert.Equal(t, Summary{TotalCount: 3}, tr.Summary(3))
}

func TestAccuracyPercentRounds(t *testing.T) {
	ctx := context.Background()
	tr, err := Load(ctx, store.NewMemoryKV(), "p1")
	require.NoError(t, err)
	tr.RecordCompletion(ctx, "a", true)
	tr.RecordCompletion(ctx, "b", true)
	tr.RecordCompletion(ctx, "c", false)
	assert.Equal(t, 67, tr.Summary(3).AccuracyPercent)
}

func TestProgressSurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	tr, err := Load(ctx, kv, "p1")
	require.NoError(t, err)
	tr.RecordCompletion(ctx, "puzzle-1", true)
	tr.RecordCompletion(ctx, "puzzle-4", false)

	raw, ok, err := kv.Get(ctx, Key("p1"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"solved":["puzzle-1","puzzle-4"],"firstTry":["puzzle-1"],"totalAttempts":2,"correctOnFirstTry":1}`, raw)

	reloaded, err := Load(ctx, kv, "p1")
	require.NoError(t, err)
	assert.Equal(t, tr.Snapshot(), reloaded.Snapshot())
}

func TestLoadRejectsCorruptProgress(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, Key("p1"), "not json"))
	_, err := Load(ctx, kv, "p1")
	assert.Error(t, err)
}

func TestPersistenceFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	tr, err := Load(ctx, failingKV{store.NewMemoryKV()}, "p1")
	require.NoError(t, err)
	snap, counted := tr.RecordCompletion(ctx, "puzzle-1", true)
	assert.True(t, counted)
	assert.Equal(t, 1, snap.TotalAttempts)
}

func TestConcurrentCompletionsCountOnce(t *testing.T) {
	ctx := context.Background()
	tr, err := Load(ctx, store.NewMemoryKV(), "p1")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		counted atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tr.RecordCompletion(ctx, "puzzle-1", true); ok {
				counted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, counted.Load())
	assert.Equal(t, 1, tr.Snapshot().TotalAttempts)
}

func TestMergeKeepsExistingResults(t *testing.T) {
	ctx := context.Background()
	tr, err := Load(ctx, store.NewMemoryKV(), "account")
	require.NoError(t, err)
	tr.RecordCompletion(ctx, "puzzle-1", false)

	snap := tr.Merge(ctx, Snapshot{
		Solved:   []string{"puzzle-1", "puzzle-2", "puzzle-3"},
		FirstTry: []string{"puzzle-1", "puzzle-2"},
	})
	assert.Equal(t, []string{"puzzle-1", "puzzle-2", "puzzle-3"}, snap.Solved)
	assert.Equal(t, []string{"puzzle-2"}, snap.FirstTry)
	assert.Equal(t, 3, snap.TotalAttempts)
	assert.Equal(t, 1, snap.CorrectOnFirstTry)
}

func TestRegistryClaim(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	reg := NewRegistry(kv)

	anon, err := reg.For(ctx, "anon-1")
	require.NoError(t, err)
	anon.RecordCompletion(ctx, "puzzle-7", true)

	same, err := reg.For(ctx, "anon-1")
	require.NoError(t, err)
	assert.Same(t, anon, same)

	snap, err := reg.Claim(ctx, "anon-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"puzzle-7"}, snap.Solved)

	// a fresh registry over the same KV sees the claimed progress
	acct, err := NewRegistry(kv).For(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, acct.IsSolved("puzzle-7"))

	snap, err = reg.Claim(ctx, "user-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalAttempts)
}
