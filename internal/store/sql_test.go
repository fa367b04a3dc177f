package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteKV(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "kv.db")+"?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv, err := NewSQLKV(context.Background(), db, SQLite)
	require.NoError(t, err)
	testKV(t, kv)

	// the table survives a second constructor call
	_, err = NewSQLKV(context.Background(), db, SQLite)
	assert.NoError(t, err)
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv, err := NewSQLKV(context.Background(), db, Postgres)
	require.NoError(t, err)
	testKV(t, kv)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), " ")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, rebind(SQLite, q))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(Postgres, q))
}
