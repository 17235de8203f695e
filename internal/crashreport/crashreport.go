// Package crashreport implements C10: capturing backend panics and
// frontend-reported faults, emitting app:error, invoking a user hook, and
// persisting a crash report to disk.
//
// Go has no settable process-wide panic hook the way some other runtimes
// do (an uncaught panic simply terminates the process). The closest
// idiomatic equivalent — and the one used here — is a swappable package
// handle that a goroutine body defers through via Guard; in the framework,
// the updater's background check runs through Guard. Install makes a
// Handler the active one, replacing whichever was active; Uninstall clears
// the handle only if that Handler is still active. A replaced Handler is
// not recorded, so Uninstall never reinstates it.
package crashreport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/events"
	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/platform"
)

// Report is the full persisted record for one fault.
type Report struct {
	Source         string   `json:"source"`
	Message        string   `json:"message"`
	StackTrace     string   `json:"stackTrace"`
	Thread         string   `json:"thread,omitempty"`
	FileName       string   `json:"fileName,omitempty"`
	LineNumber     int      `json:"lineNumber,omitempty"`
	OS             string   `json:"os"`
	AppVersion     string   `json:"appVersion"`
	RecentCommands []string `json:"recentCommands"`
	TimestampUnix  int64    `json:"timestampUnix"`
}

// Hook is invoked for every captured fault. Its own panics are swallowed.
type Hook func(Report)

// RecentCommandsSource supplies the read-only recent-commands snapshot
// (implemented by *bridge.Bridge).
type RecentCommandsSource interface {
	RecentCommands() []string
}

// Handler is the C10 error handler: install-once / uninstall-once, wired
// to an event emitter, a recent-commands source, and the app's identity.
type Handler struct {
	mu          sync.Mutex
	installed   bool
	writeMu     sync.Mutex
	emitter     *events.Emitter
	recent      RecentCommandsSource
	appDataDir  string
	appVersion  string
	userHook    Hook
	now         func() time.Time
	log         zerolog.Logger
	installedAt int64
}

var activeHandler atomic.Pointer[Handler]

// New constructs a Handler. now is injected for deterministic tests; pass
// nil to use a real wall-clock source.
func New(emitter *events.Emitter, recent RecentCommandsSource, appDataDir, appVersion string, hook Hook, now func() time.Time) *Handler {
	return &Handler{
		emitter:    emitter,
		recent:     recent,
		appDataDir: appDataDir,
		appVersion: appVersion,
		userHook:   hook,
		now:        now,
		log:        logging.For("crashreport"),
	}
}

// Install registers h as the active handler, replacing whatever was
// previously active. The replaced handler is not recorded, so Uninstall
// does not restore it.
func (h *Handler) Install() {
	h.mu.Lock()
	h.installed = true
	h.mu.Unlock()
	activeHandler.Store(h)
}

// Uninstall clears h as the active handler if it still is one.
func (h *Handler) Uninstall() {
	h.mu.Lock()
	h.installed = false
	h.mu.Unlock()
	activeHandler.CompareAndSwap(h, nil)
}

// Guard wraps fn with panic recovery, capturing any panic as a backend
// fault on threadName before re-silencing it (the goroutine does not
// crash the process). In the framework, the updater's background check
// runs its body through Guard; plugin initialization and command dispatch
// do their own recovery instead.
func Guard(threadName string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if h := activeHandler.Load(); h != nil {
				h.CaptureBackendFault(threadName, r, debug.Stack())
			}
		}
	}()
	fn()
}

// CaptureBackendFault records a backend panic: (thread_name, throwable).
func (h *Handler) CaptureBackendFault(threadName string, recovered any, stack []byte) {
	h.capture(Report{
		Source:     "backend",
		Message:    messageOf(recovered),
		StackTrace: string(stack),
		Thread:     threadName,
	})
}

// ReportFrontendFault implements bridge.FrontendFaultHandler.
func (h *Handler) ReportFrontendFault(message, source string, line int, stack string) {
	h.capture(Report{
		Source:     "frontend",
		Message:    message,
		StackTrace: stack,
		FileName:   source,
		LineNumber: line,
	})
}

func messageOf(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmtSprint(v)
}

func fmtSprint(v any) string {
	return "panic: " + jsonBestEffort(v)
}

func jsonBestEffort(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "<unrepresentable panic value>"
	}
	return string(b)
}

func (h *Handler) capture(r Report) {
	r.OS = string(platform.CurrentOS())
	r.AppVersion = h.appVersion
	if h.recent != nil {
		r.RecentCommands = h.recent.RecentCommands()
	}
	t := h.clockNow()
	r.TimestampUnix = t.Unix()

	h.log.Error().Str("source", r.Source).Str("message", r.Message).Msg("fault captured")

	if h.emitter != nil {
		h.emitter.Broadcast("app:error", r)
	}

	h.invokeUserHook(r)
	h.persist(r, t)
}

func (h *Handler) invokeUserHook(r Report) {
	if h.userHook == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Interface("panic", rec).Msg("user error hook panicked, swallowed")
		}
	}()
	h.userHook(r)
}

// persist writes r under <appDataDir>/crash-reports/crash-<ts>.json, where
// <ts> is t formatted as yyyyMMdd-HHmmss-SSS (spec §6.4).
func (h *Handler) persist(r Report, t time.Time) {
	if h.appDataDir == "" {
		return
	}
	dir := filepath.Join(h.appDataDir, "crash-reports")

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.log.Error().Err(err).Msg("could not create crash-reports directory")
		return
	}
	path := filepath.Join(dir, "crash-"+crashTimestamp(t)+".json")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		h.log.Error().Err(err).Msg("could not encode crash report")
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("could not write crash report")
	}
}

func (h *Handler) clockNow() time.Time {
	if h.now != nil {
		return h.now()
	}
	return realNow()
}

func crashTimestamp(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%03d", t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}
