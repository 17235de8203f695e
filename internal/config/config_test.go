package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().App.Name, cfg.App.Name)
}

func TestLoadReadsFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
name = "filed-app"
version = "2.0.0"

[window]
width = 1280
height = 800
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "filed-app", cfg.App.Name)
	assert.Equal(t, "2.0.0", cfg.App.Version)
	assert.Equal(t, 1280, cfg.Window.Width)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
name = "filed-app"
`), 0o644))

	t.Setenv("WEBCORE_APP_NAME", "env-app")
	t.Setenv("WEBCORE_WINDOW_WIDTH", "640")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-app", cfg.App.Name)
	assert.Equal(t, 640, cfg.Window.Width)
}

func TestInvalidEnvIntIsIgnored(t *testing.T) {
	t.Setenv("WEBCORE_WINDOW_WIDTH", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Window.Width, cfg.Window.Width)
}
