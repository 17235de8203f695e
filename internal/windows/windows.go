// Package windows implements C7: a label-keyed registry of native webview
// windows, tracking parent/modal relationships and the first-created
// "main" window, and exposing the C6 emitter's send_to/broadcast through
// the same handle.
package windows

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/events"
	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/nativelib"
	"github.com/webcore-dev/webcore/internal/webview"
)

// Options configures a window at creation time.
type Options struct {
	Title  string
	Width  int
	Height int
	Hint   webview.SizeHint
	URL    string
	HTML   string
	Debug  bool
}

type entry struct {
	label  string
	host   webview.Host
	parent string
	modal  bool
}

// Manager is the C7 window registry. It also implements events.WindowProvider
// so a Manager can be handed directly to events.NewEmitter.
type Manager struct {
	mu        sync.RWMutex
	windows   map[string]*entry
	order     []string
	mainLabel string
	counter   int64

	loader  *nativelib.Loader
	libName string
	emitter *events.Emitter
	log     zerolog.Logger

	// load and newHost are indirected for testability; NewManager wires
	// them to the real loader and webview.New.
	load    func(name string) (nativelib.Handle, error)
	newHost func(handle nativelib.Handle, debug bool) (webview.Host, error)
}

// NewManager creates an empty window manager. libName is the native webview
// library base name passed to loader.Load for every new window.
func NewManager(loader *nativelib.Loader, libName, eventNamespace string) *Manager {
	m := &Manager{
		windows: make(map[string]*entry),
		loader:  loader,
		libName: libName,
		log:     logging.For("windows"),
		load:    loader.Load,
		newHost: webview.New,
	}
	m.emitter = events.NewEmitter(m, eventNamespace)
	return m
}

// Emitter returns the C6 emitter bound to this manager, for C4/C10/plugins.
func (m *Manager) Emitter() *events.Emitter { return m.emitter }

// OverrideNativeHooks substitutes the library-load and host-construction
// functions a Manager calls on Create — the same indirection NewManager
// wires to the real loader/webview.New, exposed so callers outside this
// package (notably internal/app's orchestrator tests) can drive a Manager
// against a fake webview.Host without a real native library present.
func (m *Manager) OverrideNativeHooks(
	load func(name string) (nativelib.Handle, error),
	newHost func(handle nativelib.Handle, debug bool) (webview.Host, error),
) {
	m.load = load
	m.newHost = newHost
}

func (m *Manager) nextAutoLabel() string {
	n := atomic.AddInt64(&m.counter, 1)
	return fmt.Sprintf("window-%d", n)
}

// Create opens a top-level window. An empty label is assigned an
// auto-incrementing label. The first window ever created becomes "main".
func (m *Manager) Create(label string, opts Options) (webview.Host, error) {
	return m.create(label, opts, "", false)
}

// CreateChild opens a window logically owned by parentLabel, which must
// already exist.
func (m *Manager) CreateChild(label string, opts Options, parentLabel string) (webview.Host, error) {
	if _, ok := m.Get(parentLabel); !ok {
		return nil, apperr.Newf(apperr.KindFatal, "create_child: unknown parent window %q", parentLabel)
	}
	return m.create(label, opts, parentLabel, false)
}

// CreateModal opens a window flagged modal with respect to parentLabel.
// Actually blocking the parent is the native engine's (C3) responsibility;
// this flag is metadata only (spec §4.7).
func (m *Manager) CreateModal(label string, opts Options, parentLabel string) (webview.Host, error) {
	if _, ok := m.Get(parentLabel); !ok {
		return nil, apperr.Newf(apperr.KindFatal, "create_modal: unknown parent window %q", parentLabel)
	}
	return m.create(label, opts, parentLabel, true)
}

func (m *Manager) create(label string, opts Options, parent string, modal bool) (webview.Host, error) {
	m.mu.Lock()
	if label == "" {
		label = m.nextAutoLabel()
	}
	if _, exists := m.windows[label]; exists {
		m.mu.Unlock()
		return nil, apperr.Newf(apperr.KindFatal, "window label %q already in use", label)
	}
	isFirst := len(m.windows) == 0
	m.mu.Unlock()

	handle, err := m.load(m.libName)
	if err != nil {
		return nil, err
	}
	host, err := m.newHost(handle, opts.Debug)
	if err != nil {
		return nil, err
	}

	if opts.Title != "" {
		host.SetTitle(opts.Title)
	}
	if opts.Width > 0 && opts.Height > 0 {
		host.SetSize(opts.Width, opts.Height, opts.Hint)
	}
	switch {
	case opts.URL != "":
		host.Navigate(opts.URL)
	case opts.HTML != "":
		host.SetHTML(opts.HTML)
	}

	m.mu.Lock()
	m.windows[label] = &entry{label: label, host: host, parent: parent, modal: modal}
	m.order = append(m.order, label)
	if isFirst {
		m.mainLabel = label
	}
	m.mu.Unlock()

	m.log.Info().Str("window", label).Str("parent", parent).Bool("modal", modal).Msg("window created")
	return host, nil
}

// Close releases the window labeled label. Safe to call more than once.
func (m *Manager) Close(label string) error {
	m.mu.Lock()
	e, ok := m.windows[label]
	if !ok {
		m.mu.Unlock()
		return apperr.Newf(apperr.KindFatal, "close: unknown window %q", label)
	}
	delete(m.windows, label)
	for i, l := range m.order {
		if l == label {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	wasMain := m.mainLabel == label
	if wasMain {
		if len(m.order) > 0 {
			m.mainLabel = m.order[0]
		} else {
			m.mainLabel = ""
		}
	}
	m.mu.Unlock()

	e.host.Close()
	m.log.Info().Str("window", label).Msg("window closed")
	return nil
}

// Get returns the window host for label.
func (m *Manager) Get(label string) (webview.Host, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.windows[label]
	if !ok {
		return nil, false
	}
	return e.host, true
}

// List returns every registered label, in creation order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// MainLabel returns the label of the first window ever created, or "" if
// none exist (or the main window has since closed, in which case it is the
// oldest surviving window).
func (m *Manager) MainLabel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mainLabel
}

// Count reports how many windows are currently registered.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows)
}

// SendTo delivers event/payload to the single window labeled label.
func (m *Manager) SendTo(label, event string, payload any) {
	m.emitter.Emit(label, event, payload)
}

// Broadcast delivers event/payload to every registered window.
func (m *Manager) Broadcast(event string, payload any) {
	m.emitter.Broadcast(event, payload)
}
