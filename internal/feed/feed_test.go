package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaGaiDeN/Chess-Puzzle-Trainer/internal/puzzle"
)

const oneRecord = `[Event "x"]
[White "Mate in one"]
[FEN "6k1/8/6K1/8/8/8/8/7Q w - - 0 1"]

1. Qa8# 1-0
`

func TestLoadEmbedded(t *testing.T) {
	blob, err := Load(context.Background(), Source{})
	require.NoError(t, err)

	recs := puzzle.Parse(blob)
	require.Len(t, recs, 6)
	for _, rec := range recs {
		sol := puzzle.Extract(rec)
		assert.True(t, sol.Complete(rec.Category), "%s: missing %s", rec.ID, sol.Missing(rec.Category))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mates.pgn")
	require.NoError(t, os.WriteFile(path, []byte(oneRecord), 0o644))

	blob, err := Load(context.Background(), Source{File: path})
	require.NoError(t, err)
	assert.Equal(t, oneRecord, blob)

	_, err = Load(context.Background(), Source{File: filepath.Join(t.TempDir(), "missing.pgn")})
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mates.pgn":
			_, _ = w.Write([]byte(oneRecord))
		case "/empty.pgn":
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	// URL wins over File
	blob, err := Load(context.Background(), Source{URL: srv.URL + "/mates.pgn", File: "ignored"})
	require.NoError(t, err)
	assert.Len(t, puzzle.Parse(blob), 1)

	_, err = Load(context.Background(), Source{URL: srv.URL + "/gone.pgn"})
	assert.ErrorContains(t, err, "404")

	_, err = Load(context.Background(), Source{URL: srv.URL + "/empty.pgn"})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadURLTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(oneRecord))
	}))
	defer srv.Close()

	old := maxFeedBytes
	t.Cleanup(func() { maxFeedBytes = old })

	maxFeedBytes = int64(len(oneRecord))
	blob, err := Load(context.Background(), Source{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, oneRecord, blob)

	maxFeedBytes = int64(len(oneRecord)) - 1
	_, err = Load(context.Background(), Source{URL: srv.URL})
	assert.ErrorIs(t, err, ErrTooLarge)
}
