// Package events implements C6: serializing named events and delivering
// them to one or all windows via the webview eval hook.
package events

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/webview"
)

// defaultNamespace is the frontend global the invoke/event hooks are installed
// under (e.g. "webcore" produces "window.webcore.__event(...)").
const defaultNamespace = "webcore"

// WindowProvider is the slice of the window manager the emitter needs:
// label lookup, the full label set for broadcast, and which label is main.
// Defined here (rather than imported from internal/windows) so windows can
// depend on events without a cycle.
type WindowProvider interface {
	Get(label string) (webview.Host, bool)
	List() []string
	MainLabel() string
}

// Emitter delivers events to windows served by a WindowProvider.
type Emitter struct {
	provider  WindowProvider
	namespace string
	log       zerolog.Logger
}

// NewEmitter builds an emitter over provider. An empty namespace uses the
// default "webcore" frontend global.
func NewEmitter(provider WindowProvider, namespace string) *Emitter {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Emitter{
		provider:  provider,
		namespace: namespace,
		log:       logging.For("events"),
	}
}

// Emit delivers name/payload to the window labeled by label, or to the main
// window when label is empty. Serialization failures are logged and
// swallowed — emit never returns an error to the producer (spec §4.6).
func (e *Emitter) Emit(label, name string, payload any) {
	if label == "" {
		label = e.provider.MainLabel()
	}
	win, ok := e.provider.Get(label)
	if !ok {
		e.log.Warn().Str("window", label).Str("event", name).Msg("emit: no such window")
		return
	}
	e.deliver(win, name, payload)
}

// Broadcast delivers name/payload to every registered window.
func (e *Emitter) Broadcast(name string, payload any) {
	for _, label := range e.provider.List() {
		if win, ok := e.provider.Get(label); ok {
			e.deliver(win, name, payload)
		}
	}
}

func (e *Emitter) deliver(win webview.Host, name string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		e.log.Error().Err(err).Str("event", name).Msg("emit: payload serialization failed, dropping event")
		return
	}
	nameJSON, err := json.Marshal(name)
	if err != nil {
		e.log.Error().Err(err).Str("event", name).Msg("emit: name serialization failed, dropping event")
		return
	}
	script := "window." + e.namespace + ".__event(" + string(nameJSON) + ", " + string(encoded) + ")"
	win.Dispatch(func() {
		win.Eval(script)
	})
}
