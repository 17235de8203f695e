package assetserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestServesKnownFileAndFallsBackToIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<html>root</html>")
	writeFile(t, filepath.Join(dir, "assets", "app.js"), "console.log('hi')")

	srv, err := Start(dir)
	require.NoError(t, err)
	defer srv.Close()

	resp, err := http.Get(srv.BaseURL() + "/assets/app.js")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "console.log('hi')", string(body))

	resp2, err := http.Get(srv.BaseURL() + "/some/client/route")
	require.NoError(t, err)
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()
	assert.Equal(t, 200, resp2.StatusCode)
	assert.Equal(t, "<html>root</html>", string(body2))
}

func TestStartFailsWhenDirMissing(t *testing.T) {
	_, err := Start(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
