package plugins

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/logging"
)

// Loader discovers, orders, initializes, and shuts down plugins (C8).
type Loader struct {
	mu          sync.Mutex
	registered  []Plugin
	byName      map[string]bool
	initialized []Plugin // in initialization order, for reverse shutdown
	log         zerolog.Logger
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{
		byName: make(map[string]bool),
		log:    logging.For("plugins"),
	}
}

// LoadBuiltins instantiates every plugin registered via RegisterBuiltin
// (spec §4.8 discovery source 1).
func (l *Loader) LoadBuiltins() error {
	for _, name := range builtinNames() {
		p, ok := newBuiltin(name)
		if !ok {
			continue
		}
		if err := l.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Register adds an explicitly-constructed plugin instance (spec §4.8
// discovery source 2), or an adapter produced by internal/pluginhost for
// an out-of-process external artifact (discovery source 3).
func (l *Loader) Register(p Plugin) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byName[p.Name()] {
		return apperr.Newf(apperr.KindPluginLoad, "plugin %q already registered", p.Name())
	}
	l.byName[p.Name()] = true
	l.registered = append(l.registered, p)
	return nil
}

// ManifestDir is one discovered external-plugin artifact directory.
type ManifestDir struct {
	Path         string
	ManifestPath string
}

// DiscoverManifests walks dir for immediate subdirectories containing a
// plugin.yaml manifest (spec §4.8 discovery source 3's filesystem half;
// the platform-specific loading half is internal/pluginhost.Spawn).
func DiscoverManifests(dir string) ([]ManifestDir, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPluginLoad, "reading plugin directory", err)
	}

	var found []ManifestDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, e.Name(), "plugin.yaml")
		if _, err := os.Stat(manifestPath); err == nil {
			found = append(found, ManifestDir{Path: filepath.Join(dir, e.Name()), ManifestPath: manifestPath})
		}
	}
	return found, nil
}

// InitializeAll topologically sorts every registered plugin by declared
// dependencies and initializes each in order. A plugin whose Initialize
// panics or returns an error is logged and skipped; the rest proceed
// (spec §4.8). Returns the plugins that initialized successfully, in
// initialization order.
func (l *Loader) InitializeAll(ctx *Context) ([]Plugin, error) {
	l.mu.Lock()
	all := append([]Plugin(nil), l.registered...)
	l.mu.Unlock()

	ordered, err := orderByDependencies(all)
	if err != nil {
		return nil, err
	}

	var initialized []Plugin
	for _, p := range ordered {
		if l.safeInitialize(p, ctx) {
			initialized = append(initialized, p)
		}
	}

	l.mu.Lock()
	l.initialized = initialized
	l.mu.Unlock()
	return initialized, nil
}

func (l *Loader) safeInitialize(p Plugin, ctx *Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("plugin", p.Name()).Interface("panic", r).Msg("plugin initialize panicked, skipping")
			ok = false
		}
	}()
	if err := p.Initialize(ctx); err != nil {
		l.log.Error().Str("plugin", p.Name()).Err(err).Msg("plugin initialize failed, skipping")
		return false
	}
	return true
}

// ShutdownAll shuts down every successfully-initialized plugin in reverse
// initialization order. Each shutdown is independently guarded: one
// plugin's panic or error does not stop the others (spec §4.8).
func (l *Loader) ShutdownAll(ctx *Context) {
	l.mu.Lock()
	initialized := append([]Plugin(nil), l.initialized...)
	l.mu.Unlock()

	for i := len(initialized) - 1; i >= 0; i-- {
		l.safeShutdown(initialized[i], ctx)
	}
}

func (l *Loader) safeShutdown(p Plugin, ctx *Context) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("plugin", p.Name()).Interface("panic", r).Msg("plugin shutdown panicked")
		}
	}()
	if err := p.Shutdown(ctx); err != nil {
		l.log.Error().Str("plugin", p.Name()).Err(err).Msg("plugin shutdown failed")
	}
}

// Initialized returns the plugins that completed initialization, in order.
func (l *Loader) Initialized() []Plugin {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Plugin(nil), l.initialized...)
}
