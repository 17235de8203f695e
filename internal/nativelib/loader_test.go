package nativelib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcore-dev/webcore/internal/apperr"
)

// These tests exercise the search-order and error-aggregation logic without
// ever dlopen-ing a real webview shared library, since no platform binary
// for it ships alongside the module. tryOpen still runs against a bogus
// file to confirm it fails closed (purego.Dlopen errors on a non-library
// file) rather than panicking; the happy path (a real library handle
// resolving real symbols) is out of reach for a hosted unit test and is
// instead exercised manually against a built webview binary.

func TestLoadReturnsAggregatedSearchErrorWhenNothingMatches(t *testing.T) {
	l := NewLoader([]string{filepath.Join(t.TempDir(), "nowhere")}, "", t.TempDir())

	_, err := l.Load("webview")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindLibraryLoad))
	assert.Contains(t, err.Error(), "webview")
}

func TestTryOpenFailsClosedOnNonLibraryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-library")
	require.NoError(t, os.WriteFile(path, []byte("not an ELF or PE"), 0o644))

	l := &Loader{cache: map[string]Handle{}}
	_, err := l.tryOpen(path)
	assert.Error(t, err)
}

func TestTryOpenFailsOnMissingOrDirectoryPaths(t *testing.T) {
	l := &Loader{cache: map[string]Handle{}}

	_, err := l.tryOpen("")
	assert.Error(t, err)

	_, err = l.tryOpen(t.TempDir())
	assert.Error(t, err, "a directory is never a valid library path")
}

func TestRealpathResolvesSymlinkAndToleratesMissingPath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, 0o755))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(target, link))

	resolved, err := realpath(link)
	require.NoError(t, err)
	assert.NotEqual(t, link, resolved)

	missing := filepath.Join(dir, "does-not-exist")
	resolved, err = realpath(missing)
	require.NoError(t, err)
	assert.Equal(t, missing, resolved)

	resolved, err = realpath("")
	require.NoError(t, err)
	assert.Equal(t, os.TempDir(), resolved)
}

func TestLoadFromResourcesExtractsCompanionsBeforeMainLibrary(t *testing.T) {
	resourceDir := t.TempDir()
	destDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(resourceDir, "companion.so"), []byte("companion"), 0o644))

	l := &Loader{cache: map[string]Handle{}, TempDir: destDir}
	_, err := l.loadFromResources(resourceDir, "main.so")
	assert.Error(t, err, "main.so was never placed in resourceDir")

	companionData, readErr := os.ReadFile(filepath.Join(destDir, "companion.so"))
	require.NoError(t, readErr, "companions should be extracted even when the main library is missing")
	assert.Equal(t, "companion", string(companionData))
}

func TestSystemSearchPathsAreNonEmptyForCurrentOS(t *testing.T) {
	paths := systemSearchPaths("webview.so")
	assert.NotEmpty(t, paths)
}
