package puzzle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSolutionsAreLazyAndCached(t *testing.T) {
	c := NewCatalog(sampleFeed)
	require.NoError(t, c.Err())
	require.Equal(t, 3, c.Len())
	assert.Empty(t, c.solutions)

	sol, ok := c.Solution(1)
	require.True(t, ok)
	assert.Equal(t, Solution{First: "Qg6+", Reply: "Kh8", Mate: "Qg7#"}, sol)
	assert.Len(t, c.solutions, 1)

	again, _ := c.Solution(1)
	assert.Equal(t, sol, again)

	_, ok = c.Solution(99)
	assert.False(t, ok)
}

func TestCatalogNext(t *testing.T) {
	c := NewCatalog(sampleFeed)
	assert.Equal(t, 1, c.Next(0))
	assert.Equal(t, 2, c.Next(1))
	assert.Equal(t, 0, c.Next(2))
	assert.Equal(t, 0, c.Next(-1))
	assert.Equal(t, -1, FailedCatalog(errors.New("x")).Next(0))
}

func TestFailedCatalog(t *testing.T) {
	feedErr := errors.New("feed down")
	c := FailedCatalog(feedErr)
	assert.Equal(t, 0, c.Len())
	assert.ErrorIs(t, c.Err(), feedErr)
	_, ok := c.Record(0)
	assert.False(t, ok)

	assert.ErrorIs(t, NewCatalog("").Err(), ErrNoPuzzles)
}
