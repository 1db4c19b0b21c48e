package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Logging.JSON)
	assert.Equal(t, "datacore.db", cfg.Storage.Path)
	assert.Equal(t, "records.json", cfg.Records.DefaultFilename)

	// Cached on subsequent calls
	again, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datacore.toml")
	content := `
[logging]
json = true

[storage]
path = "/tmp/frames.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "/tmp/frames.db", cfg.Storage.Path)
	// Unset sections keep their defaults
	assert.Equal(t, "records.json", cfg.Records.DefaultFilename)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
