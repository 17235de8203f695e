package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/permissions"
	"github.com/webcore-dev/webcore/internal/webview"
)

type fakeHost struct {
	webview.Host
	binds   map[string]webview.BindCallback
	inits   []string
	results []returnCall
}

type returnCall struct {
	seq     string
	success bool
	payload string
}

func newFakeHost() *fakeHost {
	return &fakeHost{binds: make(map[string]webview.BindCallback)}
}

func (f *fakeHost) Bind(name string, cb webview.BindCallback) error {
	f.binds[name] = cb
	return nil
}

func (f *fakeHost) Init(script string) { f.inits = append(f.inits, script) }

func (f *fakeHost) Return(seq string, success bool, payload string) {
	f.results = append(f.results, returnCall{seq, success, payload})
}

func buildBridgeWithEcho(t *testing.T) (*Bridge, *fakeHost, *commands.Registry) {
	t.Helper()
	registry := commands.NewRegistry()
	err := registry.Register(commands.CommandSpec{
		Name: "echo",
		Params: []commands.ParamDescriptor{
			{Name: "text", Kind: commands.KindString},
		},
		Handler: func(text string) (string, error) { return text, nil },
	})
	require.NoError(t, err)

	err = registry.Register(commands.CommandSpec{
		Name:        "secret",
		Permissions: commands.PermissionSpec{Keys: []string{"fs:read"}, Semantics: commands.AllOf},
		Handler:     func() (string, error) { return "classified", nil },
	})
	require.NoError(t, err)

	checker := permissions.NewChecker(nil, true)
	b := New(registry, checker, nil, "webcore", 5)
	host := newFakeHost()
	require.NoError(t, b.Install(host))
	return b, host, registry
}

func invokeEnvelope(cmd string, args map[string]any) string {
	inner := map[string]any{"cmd": cmd, "args": args}
	innerJSON, _ := json.Marshal(inner)
	arr, _ := json.Marshal([]string{string(innerJSON)})
	return string(arr)
}

func TestInvokeSuccessReturnsResult(t *testing.T) {
	_, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]
	require.NotNil(t, cb)

	cb("seq-1", invokeEnvelope("echo", map[string]any{"text": "hi"}))

	require.Len(t, host.results, 1)
	assert.True(t, host.results[0].success)
	assert.Equal(t, `"hi"`, host.results[0].payload)
}

func TestInvokeUnknownCommandProducesFailureEnvelope(t *testing.T) {
	_, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]

	cb("seq-2", invokeEnvelope("nope", nil))

	require.Len(t, host.results, 1)
	assert.False(t, host.results[0].success)
	assert.Contains(t, host.results[0].payload, "message")
}

func TestInvokeMalformedJSONProducesFailureEnvelope(t *testing.T) {
	_, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]

	assert.NotPanics(t, func() {
		cb("seq-3", "not json at all")
	})
	require.Len(t, host.results, 1)
	assert.False(t, host.results[0].success)
}

func TestInvokeEmptyArrayProducesFailureEnvelope(t *testing.T) {
	_, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]

	cb("seq-4", "[]")
	require.Len(t, host.results, 1)
	assert.False(t, host.results[0].success)
}

func TestInvokeMissingCmdProducesFailureEnvelope(t *testing.T) {
	_, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]

	cb("seq-5", invokeEnvelope("", nil))
	require.Len(t, host.results, 1)
	assert.False(t, host.results[0].success)
}

func TestInvokeDeniedPermissionProducesFailureEnvelope(t *testing.T) {
	_, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]

	cb("seq-6", invokeEnvelope("secret", nil))
	require.Len(t, host.results, 1)
	assert.False(t, host.results[0].success)
}

func TestRecentCommandsTracksInvocationsNewestFirst(t *testing.T) {
	b, host, _ := buildBridgeWithEcho(t)
	cb := host.binds["__invoke"]

	cb("s1", invokeEnvelope("echo", map[string]any{"text": "a"}))
	cb("s2", invokeEnvelope("echo", map[string]any{"text": "b"}))

	recent := b.RecentCommands()
	require.Len(t, recent, 2)
	assert.Equal(t, "echo", recent[0])
}

func TestReportErrorForwardsToFaultHandler(t *testing.T) {
	registry := commands.NewRegistry()
	checker := permissions.NewChecker(nil, true)
	fh := &capturingFaultHandler{}
	b := New(registry, checker, fh, "webcore", 5)
	host := newFakeHost()
	require.NoError(t, b.Install(host))

	cb := host.binds["__report_error"]
	require.NotNil(t, cb)

	payload, _ := json.Marshal(map[string]any{"message": "boom", "source": "app.js", "line": 12, "stack": "trace"})
	arr, _ := json.Marshal([]json.RawMessage{payload})
	cb("seq", string(arr))

	require.Len(t, fh.calls, 1)
	assert.Equal(t, "boom", fh.calls[0].message)
}

type faultCall struct {
	message, source, stack string
	line                   int
}

type capturingFaultHandler struct {
	calls []faultCall
}

func (c *capturingFaultHandler) ReportFrontendFault(message, source string, line int, stack string) {
	c.calls = append(c.calls, faultCall{message, source, stack, line})
}
