package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/game"
	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/rules"
)

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	st := NewMemorySessions()

	s := game.NewSession(rules.NewChessEngine())
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(ctx, s.ID))
	_, err = st.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, st.Delete(ctx, s.ID))
}

// testKV runs the shared KV contract against any backend.
func testKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "progress:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "progress:p1", `{"solved":["puzzle-1"]}`))
	v, ok, err := kv.Get(ctx, "progress:p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"solved":["puzzle-1"]}`, v)

	require.NoError(t, kv.Set(ctx, "progress:p1", "{}"))
	v, _, err = kv.Get(ctx, "progress:p1")
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestMemoryKV(t *testing.T) {
	testKV(t, NewMemoryKV())
}
