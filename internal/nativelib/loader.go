// Package nativelib implements C2: locating and loading the native webview
// shared library (and its companions) without cgo.
//
// Dynamic loading is done with github.com/ebitengine/purego, which exposes
// dlopen/dlsym (and the Windows LoadLibrary/GetProcAddress equivalents)
// through one cross-platform API. This lets internal/webview bind the real
// webview C ABI (webview_create, webview_bind, ...) from a pure-Go build —
// the out-of-scope "native webview C library" stays a true external
// collaborator instead of requiring cgo to reach it.
package nativelib

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/platform"
)

// Handle is an opaque loaded-library handle.
type Handle uintptr

// Loader locates and loads shared libraries using the fixed search order
// from spec §4.2, caching successful loads by base name.
type Loader struct {
	mu    sync.Mutex
	cache map[string]Handle

	// LibraryPath mirrors a process-wide search path (like $PATH) of
	// directories and/or direct file paths to check first.
	LibraryPath []string

	// ResourceDir is the root under which "/native/<os>/<arch>/<filename>"
	// resource layouts are looked up (an embedded or installed resource
	// tree), and TempDir is where matched resources are extracted before
	// loading (spec requires the *canonicalized* real path, not a Windows
	// short-name alias).
	ResourceDir string
	TempDir     string
}

// NewLoader constructs a Loader with the given search configuration.
func NewLoader(libraryPath []string, resourceDir, tempDir string) *Loader {
	return &Loader{
		cache:       make(map[string]Handle),
		LibraryPath: libraryPath,
		ResourceDir: resourceDir,
		TempDir:     tempDir,
	}
}

// Load returns a handle to the shared library named base (e.g. "webview"),
// walking the search order in spec §4.2 and stopping at the first hit.
func (l *Loader) Load(base string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if h, ok := l.cache[base]; ok {
		return h, nil
	}

	filename := platform.LibraryFilename(base)
	tried := make([]string, 0, 8)

	// 1. process library path: as file, as directory, and <os>/<arch>/ under it.
	for _, entry := range l.LibraryPath {
		candidates := []string{
			entry,
			filepath.Join(entry, filename),
			filepath.Join(entry, string(platform.CurrentOS()), platform.Arch(), filename),
		}
		for _, c := range candidates {
			tried = append(tried, c)
			if h, err := l.tryOpen(c); err == nil {
				l.cache[base] = h
				return h, nil
			}
		}
	}

	// 2. resource path extracted to a temp directory; pre-load companions.
	if l.ResourceDir != "" {
		resourcePath := filepath.Join(l.ResourceDir, "native", string(platform.CurrentOS()), platform.Arch())
		tried = append(tried, filepath.Join(resourcePath, filename))
		if h, err := l.loadFromResources(resourcePath, filename); err == nil {
			l.cache[base] = h
			return h, nil
		}
	}

	// 3. sibling of the current executable.
	if exe, err := os.Executable(); err == nil {
		c := filepath.Join(filepath.Dir(exe), filename)
		tried = append(tried, c)
		if h, err := l.tryOpen(c); err == nil {
			l.cache[base] = h
			return h, nil
		}
	}

	// 4. short platform-specific system list.
	for _, c := range systemSearchPaths(filename) {
		tried = append(tried, c)
		if h, err := l.tryOpen(c); err == nil {
			l.cache[base] = h
			return h, nil
		}
	}

	return 0, apperr.Newf(apperr.KindLibraryLoad, "could not load %q, searched: %v", base, tried)
}

func (l *Loader) tryOpen(path string) (Handle, error) {
	if path == "" {
		return 0, os.ErrNotExist
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0, os.ErrNotExist
	}
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

// loadFromResources extracts every file in resourceDir into l.TempDir
// (companions first, so the OS loader can resolve transitive dependencies
// from their new location), pre-loads each companion (a companion that
// fails to load is skipped), and then loads filename from the canonicalized
// temp path.
func (l *Loader) loadFromResources(resourceDir, filename string) (Handle, error) {
	entries, err := os.ReadDir(resourceDir)
	if err != nil {
		return 0, err
	}

	destDir, err := realpath(l.TempDir)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, err
	}

	var mainSrc string
	var companions []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(resourceDir, e.Name())
		if e.Name() == filename {
			mainSrc = src
			continue
		}
		companion := filepath.Join(destDir, e.Name())
		if err := extractFile(src, companion); err != nil {
			return 0, err
		}
		companions = append(companions, companion)
	}
	if mainSrc == "" {
		return 0, os.ErrNotExist
	}
	for _, c := range companions {
		_, _ = l.tryOpen(c)
	}
	dest := filepath.Join(destDir, filename)
	if err := extractFile(mainSrc, dest); err != nil {
		return 0, err
	}
	return l.tryOpen(dest)
}

func extractFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}

// realpath resolves symlinks so we never load through a Windows short-name
// or symlink alias (spec §4.2: "whose real (canonicalized) form is used").
func realpath(path string) (string, error) {
	if path == "" {
		path = os.TempDir()
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	return resolved, nil
}

func systemSearchPaths(filename string) []string {
	switch platform.CurrentOS() {
	case platform.MacOS:
		return []string{
			filepath.Join("/usr/local/lib", filename),
			filepath.Join("/opt/homebrew/lib", filename),
			filepath.Join("/usr/lib", filename),
		}
	case platform.Windows:
		sysRoot := os.Getenv("SYSTEMROOT")
		if sysRoot == "" {
			sysRoot = `C:\Windows`
		}
		return []string{filepath.Join(sysRoot, "System32", filename)}
	default:
		return []string{
			filepath.Join("/usr/local/lib", filename),
			filepath.Join("/usr/lib", filename),
		}
	}
}

// Sym resolves a symbol address within a loaded library handle.
func Sym(h Handle, name string) (uintptr, error) {
	return purego.Dlsym(uintptr(h), name)
}
