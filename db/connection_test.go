package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppliesPragmas(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer database.Close()

	var journalMode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)
}

func TestOpenBadPath(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "test.db"), nil)
	if err == nil {
		// sqlite defers file creation; force it with a write
		_, err = database.Exec("CREATE TABLE t (id INTEGER)")
		database.Close()
	}
	assert.Error(t, err)
}
