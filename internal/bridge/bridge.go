// Package bridge implements C4: the IPC bridge installed into a window,
// translating the two boundary bindings (__invoke, __report_error) into
// calls against the command registry and the error handler.
package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/permissions"
	"github.com/webcore-dev/webcore/internal/webview"
)

// FrontendFaultHandler receives errors reported by the frontend's
// window.onerror / unhandledrejection shim (forwarded to C10).
type FrontendFaultHandler interface {
	ReportFrontendFault(message, source string, line int, stack string)
}

// Bridge wires one webview.Host to a command registry and permission
// checker, and forwards frontend error reports.
type Bridge struct {
	registry  *commands.Registry
	checker   *permissions.Checker
	faults    FrontendFaultHandler
	namespace string
	recent    *RecentCommands
	log       zerolog.Logger
}

// New constructs a Bridge. namespace names the frontend global ("webcore"
// produces window.webcore.invoke/.on). recentCap bounds the recent-commands
// ring buffer exposed read-only to C10.
func New(registry *commands.Registry, checker *permissions.Checker, faults FrontendFaultHandler, namespace string, recentCap int) *Bridge {
	if namespace == "" {
		namespace = "webcore"
	}
	return &Bridge{
		registry:  registry,
		checker:   checker,
		faults:    faults,
		namespace: namespace,
		recent:    NewRecentCommands(recentCap),
		log:       logging.For("bridge"),
	}
}

// RecentCommands exposes the read-only recent-commands buffer to C10.
func (b *Bridge) RecentCommands() []string { return b.recent.Snapshot() }

// SetFaultHandler wires the error handler after construction: C12 builds
// the bridge before C10 (C10 needs the bridge as its RecentCommandsSource),
// so the fault handler can only be attached once both exist.
func (b *Bridge) SetFaultHandler(faults FrontendFaultHandler) {
	b.faults = faults
}

// Install binds __invoke and __report_error into host and injects the
// three init scripts (invoke shim, drag-and-drop shim, error-capture shim).
func (b *Bridge) Install(host webview.Host) error {
	if err := host.Bind("__invoke", func(seq, argsJSON string) {
		b.handleInvoke(host, seq, argsJSON)
	}); err != nil {
		return apperr.Wrap(apperr.KindIPCMalformed, "binding __invoke", err)
	}
	if err := host.Bind("__report_error", func(seq, argsJSON string) {
		b.handleReportError(host, seq, argsJSON)
	}); err != nil {
		return apperr.Wrap(apperr.KindIPCMalformed, "binding __report_error", err)
	}

	host.Init(invokeShim(b.namespace))
	host.Init(dragDropShim(b.namespace))
	host.Init(errorCaptureShim())
	return nil
}

// handleInvoke parses the frontend's request envelope, dispatches it
// through the permission-gated registry, and resolves the frontend promise
// via return_result. Every failure path — malformed JSON, empty array,
// missing cmd, permission denial, handler error — produces a failure
// envelope; none of them panic the bridge (spec §4.4).
func (b *Bridge) handleInvoke(host webview.Host, seq, argsJSON string) {
	req, err := decodeEnvelope(argsJSON)
	if err != nil {
		b.respondFailure(host, seq, err)
		return
	}

	b.recent.Push(req.Cmd)

	if desc, ok := b.registry.Lookup(req.Cmd); ok && desc.Permissions.Required() {
		if err := b.checker.Check(desc.Permissions); err != nil {
			b.respondFailure(host, seq, err)
			return
		}
	}

	result, err := b.registry.Invoke(context.Background(), req)
	if err != nil {
		b.respondFailure(host, seq, err)
		return
	}
	host.Return(seq, true, string(result))
}

func (b *Bridge) respondFailure(host webview.Host, seq string, err error) {
	b.log.Warn().Err(err).Str("seq", seq).Msg("invoke failed")
	payload, marshalErr := json.Marshal(failureEnvelope{Message: apperr.Message(err)})
	if marshalErr != nil {
		payload = []byte(`{"message":"internal error encoding failure"}`)
	}
	host.Return(seq, false, string(payload))
}

type failureEnvelope struct {
	Message string `json:"message"`
}

// envelope mirrors the frontend's stringified request object: {cmd, args}.
type envelope struct {
	Cmd  string                     `json:"cmd"`
	Args map[string]json.RawMessage `json:"args"`
}

// decodeEnvelope parses the __invoke args JSON array, whose first element
// is the stringified (or, tolerantly, raw-object) request envelope.
func decodeEnvelope(argsJSON string) (commands.Request, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(argsJSON), &arr); err != nil {
		return commands.Request{}, apperr.Wrap(apperr.KindIPCMalformed, "malformed invoke payload", err)
	}
	if len(arr) == 0 {
		return commands.Request{}, apperr.New(apperr.KindIPCMalformed, "invoke payload is an empty array")
	}

	var env envelope
	var asString string
	if err := json.Unmarshal(arr[0], &asString); err == nil {
		if err := json.Unmarshal([]byte(asString), &env); err != nil {
			return commands.Request{}, apperr.Wrap(apperr.KindIPCMalformed, "malformed request envelope", err)
		}
	} else if err := json.Unmarshal(arr[0], &env); err != nil {
		return commands.Request{}, apperr.Wrap(apperr.KindIPCMalformed, "malformed request envelope", err)
	}

	if env.Cmd == "" {
		return commands.Request{}, apperr.New(apperr.KindIPCMalformed, "request envelope is missing cmd")
	}
	return commands.Request{Cmd: env.Cmd, Args: env.Args}, nil
}

// handleReportError forwards a frontend-side fault to C10 and acknowledges
// the call (the frontend shim does not await a meaningful result).
func (b *Bridge) handleReportError(host webview.Host, seq, argsJSON string) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(argsJSON), &arr); err != nil || len(arr) == 0 {
		host.Return(seq, true, "null")
		return
	}
	var fault struct {
		Message string `json:"message"`
		Source  string `json:"source"`
		Line    int    `json:"line"`
		Stack   string `json:"stack"`
	}
	// The error-capture shim sends the fault as a JSON.stringify'd string;
	// a raw object is accepted too.
	data := arr[0]
	var asString string
	if err := json.Unmarshal(arr[0], &asString); err == nil {
		data = json.RawMessage(asString)
	}
	if err := json.Unmarshal(data, &fault); err == nil && b.faults != nil {
		b.faults.ReportFrontendFault(fault.Message, fault.Source, fault.Line, fault.Stack)
	}
	host.Return(seq, true, "null")
}

// RecentCommands is a bounded ring of the most recently invoked command
// names, newest first.
type RecentCommands struct {
	mu    sync.Mutex
	items []string
	cap   int
}

// NewRecentCommands creates a ring buffer holding at most capacity names.
func NewRecentCommands(capacity int) *RecentCommands {
	if capacity <= 0 {
		capacity = 20
	}
	return &RecentCommands{cap: capacity}
}

// Push records name as the newest command, evicting the oldest if full.
func (r *RecentCommands) Push(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append([]string{name}, r.items...)
	if len(r.items) > r.cap {
		r.items = r.items[:r.cap]
	}
}

// Snapshot returns a copy of the buffer, newest first.
func (r *RecentCommands) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}
