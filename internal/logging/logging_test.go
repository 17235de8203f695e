package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAcceptsBadLevelByFallingBackToInfo(t *testing.T) {
	err := Init(Config{Level: "not-a-level"})
	require.NoError(t, err)
}

func TestForNamespacesComponent(t *testing.T) {
	require.NoError(t, Init(Config{Level: "info"}))
	logger := For("commands")
	assert.NotNil(t, logger.GetLevel())
}

func TestForWorksWithoutInit(t *testing.T) {
	mu.Lock()
	init_ = false
	mu.Unlock()

	logger := For("uninitialized")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webcore.log")
	require.NoError(t, Init(Config{Level: "info", FilePath: path}))

	logger := For("test")
	logger.Info().Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestRotatingWriterRotatesOnSizeAndCapsFileCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newRotatingWriter(path, 10, 2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := w.Write([]byte("0123456789"))
		require.NoError(t, err)
	}

	_, err = os.Stat(path)
	require.NoError(t, err, "active log file should exist")

	_, err = os.Stat(path + ".1")
	require.NoError(t, err, "at least one rotated file should exist")

	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "rotation should not keep more than maxFiles old copies")
}

func TestRotatingWriterWithoutMaxFilesDropsOldContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newRotatingWriter(path, 5, 0)
	require.NoError(t, err)

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)

	_, err = os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err), "no numbered backups expected when maxFiles is 0")
}
