package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// a second run finds everything applied
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 3, n)

	for _, table := range []string{"users", "solves", "daily_results"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrateSelfManagedAndFailure(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte(`BEGIN TRANSACTION; CREATE TABLE a (id INTEGER); COMMIT;`)},
		"migrations/002_b.sql": {Data: []byte(`CREATE TABLE b (id INTEGER);`)},
	}
	require.NoError(t, migrate(db, fsys))

	fsys["migrations/003_bad.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE nope (`)}
	err = migrate(db, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "003_bad.sql")

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}
