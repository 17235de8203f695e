package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcore-dev/webcore/internal/webview"
)

// fakeHost records Eval calls; Dispatch runs fn synchronously since tests
// have no real run loop.
type fakeHost struct {
	webview.Host
	evals []string
}

func (f *fakeHost) Dispatch(fn func()) { fn() }
func (f *fakeHost) Eval(script string) { f.evals = append(f.evals, script) }

type fakeProvider struct {
	main string
	wins map[string]*fakeHost
}

func (p *fakeProvider) Get(label string) (webview.Host, bool) {
	w, ok := p.wins[label]
	if !ok {
		return nil, false
	}
	return w, true
}

func (p *fakeProvider) List() []string {
	labels := make([]string, 0, len(p.wins))
	for l := range p.wins {
		labels = append(labels, l)
	}
	return labels
}

func (p *fakeProvider) MainLabel() string { return p.main }

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		main: "main",
		wins: map[string]*fakeHost{
			"main":  {},
			"about": {},
		},
	}
}

func TestEmitDefaultsToMainWindow(t *testing.T) {
	p := newFakeProvider()
	e := NewEmitter(p, "")

	e.Emit("", "app:ready", map[string]any{"ok": true})

	require.Len(t, p.wins["main"].evals, 1)
	assert.Contains(t, p.wins["main"].evals[0], "window.webcore.__event(")
	assert.Contains(t, p.wins["main"].evals[0], `"app:ready"`)
	assert.Empty(t, p.wins["about"].evals)
}

func TestEmitToUnknownWindowIsSwallowed(t *testing.T) {
	p := newFakeProvider()
	e := NewEmitter(p, "")

	assert.NotPanics(t, func() {
		e.Emit("nonexistent", "app:ready", nil)
	})
}

func TestBroadcastReachesEveryWindow(t *testing.T) {
	p := newFakeProvider()
	e := NewEmitter(p, "ns")

	e.Broadcast("app:error", map[string]string{"message": "boom"})

	require.Len(t, p.wins["main"].evals, 1)
	require.Len(t, p.wins["about"].evals, 1)
	assert.Contains(t, p.wins["main"].evals[0], "window.ns.__event(")
}

func TestEmitSerializationFailureIsSwallowed(t *testing.T) {
	p := newFakeProvider()
	e := NewEmitter(p, "")

	assert.NotPanics(t, func() {
		e.Emit("main", "bad", make(chan int))
	})
	assert.Empty(t, p.wins["main"].evals)
}
