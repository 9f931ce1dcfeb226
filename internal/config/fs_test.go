package config

import (
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoaderCreatesDefaultOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	fl := NewFileLoader(path, logr.Discard())
	c, err := fl.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	// The default document was persisted and is re-loadable.
	reloaded, err := fl.Load()
	require.NoError(t, err)
	assert.Equal(t, c, reloaded)
}

func TestFileLoaderSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	fl := NewFileLoader(filepath.Join(dir, "config.json"), logr.Discard())

	c := Default()
	c.Music.Preset = "percussive"
	require.NoError(t, fl.Save(c))

	got, err := fl.Load()
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDefaultPathPrefersXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgroot")
	assert.Equal(t, "/tmp/xdgroot/khord/config.json", DefaultPath())
}
