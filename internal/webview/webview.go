// Package webview implements C3: a Host abstraction over the native webview
// C library (https://github.com/webview/webview), bound without cgo via
// purego (internal/nativelib). The native library itself, and the platform
// window-chrome engines around it, are external collaborators per spec §1 —
// this package only talks to the documented C ABI.
package webview

import (
	"sync"

	"github.com/ebitengine/purego"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/nativelib"
)

// SizeHint controls how SetSize's width/height are interpreted (spec §4.3).
type SizeHint int

const (
	HintNone SizeHint = iota
	HintMin
	HintMax
	HintFixed
)

// BindCallback is invoked when the frontend calls a bound function. seq
// identifies the outstanding call (opaque, passed back to Return); argsJSON
// is the JSON array of arguments the frontend passed.
type BindCallback func(seq string, argsJSON string)

// Host abstracts a single native webview instance. All operations except
// Create are safe to call on an already-closed handle (idempotent no-ops),
// per spec §4.3.
type Host interface {
	SetTitle(title string)
	SetSize(width, height int, hint SizeHint)
	Navigate(url string)
	SetHTML(html string)
	Init(script string)
	Eval(script string)
	Bind(name string, cb BindCallback) error
	Return(seq string, success bool, payload string)
	Run()
	Terminate()
	Close()
	// Dispatch marshals fn onto the run-loop thread — the only thread on
	// which native webview calls are safe once Run has started (spec §5).
	Dispatch(fn func())
}

// abi holds the resolved C function pointers for one loaded webview
// library. It is shared by every Host created against that library.
type abi struct {
	create    func(debug int32, window uintptr) uintptr
	destroy   func(w uintptr)
	run       func(w uintptr)
	terminate func(w uintptr)
	dispatch  func(w uintptr, fn uintptr, arg uintptr)
	setTitle  func(w uintptr, title string)
	setSize   func(w uintptr, width, height, hints int32)
	navigate  func(w uintptr, url string)
	setHTML   func(w uintptr, html string)
	init      func(w uintptr, js string)
	eval      func(w uintptr, js string)
	bind      func(w uintptr, name string, fn uintptr, arg uintptr)
	unbind    func(w uintptr, name string)
	webReturn func(w uintptr, seq string, status int32, result string)
}

var (
	abiMu    sync.Mutex
	abiCache = map[nativelib.Handle]*abi{}
)

// resolveABI binds every symbol once per library handle.
func resolveABI(h nativelib.Handle) (*abi, error) {
	abiMu.Lock()
	defer abiMu.Unlock()
	if a, ok := abiCache[h]; ok {
		return a, nil
	}

	a := &abi{}
	bindings := []struct {
		name string
		fptr any
	}{
		{"webview_create", &a.create},
		{"webview_destroy", &a.destroy},
		{"webview_run", &a.run},
		{"webview_terminate", &a.terminate},
		{"webview_dispatch", &a.dispatch},
		{"webview_set_title", &a.setTitle},
		{"webview_set_size", &a.setSize},
		{"webview_navigate", &a.navigate},
		{"webview_set_html", &a.setHTML},
		{"webview_init", &a.init},
		{"webview_eval", &a.eval},
		{"webview_bind", &a.bind},
		{"webview_unbind", &a.unbind},
		{"webview_return", &a.webReturn},
	}
	for _, b := range bindings {
		sym, err := nativelib.Sym(h, b.name)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindLibraryLoad, "resolving symbol "+b.name, err)
		}
		purego.RegisterFunc(b.fptr, sym)
	}

	abiCache[h] = a
	return a, nil
}

// nativeHost is the purego-backed Host implementation.
type nativeHost struct {
	abi    *abi
	handle uintptr

	mu        sync.Mutex
	closed    bool
	binds     map[string]BindCallback
	callbacks []uintptr // kept alive: purego callback trampolines must not be GC'd

	// Dispatch reuses one stable trampoline for the life of the host
	// instead of minting a new purego callback per call: webview_dispatch
	// passes arg straight back to the callback, so a monotonic key into
	// dispatchFns is enough to route each call to its closure without
	// registering a new native callback every time Dispatch is invoked.
	dispatchMu  sync.Mutex
	dispatchPtr uintptr
	dispatchSeq uintptr
	dispatchFns map[uintptr]func()
}

// New creates a webview bound to a loaded native library handle. debug
// enables devtools/inspector where the underlying library supports it.
func New(h nativelib.Handle, debug bool) (Host, error) {
	a, err := resolveABI(h)
	if err != nil {
		return nil, err
	}
	dbg := int32(0)
	if debug {
		dbg = 1
	}
	handle := a.create(dbg, 0)
	if handle == 0 {
		return nil, apperr.New(apperr.KindLibraryLoad, "webview_create returned null")
	}
	host := &nativeHost{
		abi:         a,
		handle:      handle,
		binds:       make(map[string]BindCallback),
		dispatchFns: make(map[uintptr]func()),
	}
	host.dispatchPtr = purego.NewCallback(host.runDispatched)
	host.callbacks = append(host.callbacks, host.dispatchPtr)
	return host, nil
}

func (h *nativeHost) alive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

func (h *nativeHost) SetTitle(title string) {
	if h.alive() {
		h.abi.setTitle(h.handle, title)
	}
}

func (h *nativeHost) SetSize(width, height int, hint SizeHint) {
	if h.alive() {
		h.abi.setSize(h.handle, int32(width), int32(height), int32(hint))
	}
}

func (h *nativeHost) Navigate(url string) {
	if h.alive() {
		h.abi.navigate(h.handle, url)
	}
}

func (h *nativeHost) SetHTML(html string) {
	if h.alive() {
		h.abi.setHTML(h.handle, html)
	}
}

func (h *nativeHost) Init(script string) {
	if h.alive() {
		h.abi.init(h.handle, script)
	}
}

func (h *nativeHost) Eval(script string) {
	if h.alive() {
		h.abi.eval(h.handle, script)
	}
}

// Bind installs cb as a frontend-callable function. The C trampoline
// receives (seq *C.char, req *C.char, arg unsafe.Pointer); purego marshals
// those to Go strings for us when the registered Go function signature
// says so.
func (h *nativeHost) Bind(name string, cb BindCallback) error {
	if !h.alive() {
		return apperr.New(apperr.KindLibraryLoad, "bind on closed webview")
	}
	trampoline := func(seq string, req string, arg uintptr) {
		cb(seq, req)
	}
	ptr := purego.NewCallback(trampoline)

	h.mu.Lock()
	h.binds[name] = cb
	h.callbacks = append(h.callbacks, ptr)
	h.mu.Unlock()

	h.abi.bind(h.handle, name, ptr, 0)
	return nil
}

func (h *nativeHost) Return(seq string, success bool, payload string) {
	if !h.alive() {
		return
	}
	status := int32(0)
	if !success {
		status = 1
	}
	h.abi.webReturn(h.handle, seq, status, payload)
}

func (h *nativeHost) Run() {
	if h.alive() {
		h.abi.run(h.handle)
	}
}

func (h *nativeHost) Terminate() {
	if h.alive() {
		h.abi.terminate(h.handle)
	}
}

func (h *nativeHost) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	handle := h.handle
	h.mu.Unlock()
	h.abi.destroy(handle)
}

// Dispatch marshals fn onto the webview's creating thread via
// webview_dispatch, satisfying spec §5's single-threading requirement for
// any caller that isn't already running on that thread. fn is queued under
// a sequence key and run by the one stable trampoline registered in New,
// rather than registering a fresh native callback per call.
func (h *nativeHost) Dispatch(fn func()) {
	if !h.alive() {
		return
	}
	h.dispatchMu.Lock()
	h.dispatchSeq++
	key := h.dispatchSeq
	h.dispatchFns[key] = fn
	h.dispatchMu.Unlock()

	h.abi.dispatch(h.handle, h.dispatchPtr, key)
}

// runDispatched is the single trampoline registered for this host's
// lifetime; webview_dispatch passes our sequence key straight back as arg.
func (h *nativeHost) runDispatched(w uintptr, arg uintptr) {
	h.dispatchMu.Lock()
	fn, ok := h.dispatchFns[arg]
	if ok {
		delete(h.dispatchFns, arg)
	}
	h.dispatchMu.Unlock()
	if ok {
		fn()
	}
}
