// Package commands implements C5: the typed command registry, its argument
// binder, dispatch, and result/error encoding.
//
// Handlers are registered explicitly (spec design notes §9 — no annotation
// processing, no reflection over compiled parameter names, since Go erases
// those). A HandlerContainer contributes zero or more CommandSpecs; each
// spec names its parameters up front via ParamDescriptor, the same way a
// hand-written registrar table would.
package commands

import (
	"context"
	"encoding/json"
	"reflect"
)

// ParamKind is the semantic type of one parameter (spec §3).
type ParamKind int

const (
	KindInteger ParamKind = iota
	KindRational
	KindBoolean
	KindString
	KindSequence
	KindSet
	KindMapping
	KindRecord
	KindEnum
	KindOpaqueRequest
)

// ParamDescriptor names and types one handler parameter. GoType is
// descriptive only: the binder unmarshals each JSON argument into the
// handler function's own parameter type and does not read GoType.
type ParamDescriptor struct {
	Name   string
	Kind   ParamKind
	GoType reflect.Type
}

// Request is the opaque-request-handle representation of an entire IPC
// call: the command name plus its raw, not-yet-bound JSON arguments. A
// handler whose single parameter is of kind KindOpaqueRequest receives this
// value directly instead of individually-bound parameters (spec §4.5.1).
type Request struct {
	Cmd  string
	Args map[string]json.RawMessage
}

// PermissionSemantics controls how a multi-permission requirement is
// evaluated against the caller's grants (spec §4.9).
type PermissionSemantics int

const (
	AllOf PermissionSemantics = iota
	AnyOf
)

// PermissionSpec is a command's declared permission requirement.
type PermissionSpec struct {
	Keys       []string
	Semantics  PermissionSemantics
}

// Required reports whether this spec requires any permission at all.
func (p PermissionSpec) Required() bool { return len(p.Keys) > 0 }

// Awaiter is implemented by a handler's future-like return value. The
// registry calls Await and uses its result in place of the original return
// value before encoding (spec §4.5 "If the handler returns a future-like
// value, the registry awaits completion before encoding").
type Awaiter interface {
	Await(ctx context.Context) (any, error)
}

// Char projects a single Unicode code point as spec §6.2 requires
// ("Character ↔ single-code-point string; empty string coerces to NUL").
type Char rune

func (c Char) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(rune(c)))
}

func (c *Char) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*c = Char(0)
		return nil
	}
	r := []rune(s)
	*c = Char(r[0])
	return nil
}

// boundInvoker is the normalized shape every registered handler takes once
// reflect-bound: it receives a context and the whole Request (command name
// plus raw JSON arguments), binds the arguments itself, and returns a
// JSON-projectable value or error.
//
// Handlers are supplied to CommandSpec.Handler as a concrete Go func value
// with one parameter per entry in Params (or a single Request/record
// parameter per the binding rules in binder.go); bind in binder.go, called
// by Register, wraps that concrete func with reflection to produce this
// normalized shape.
type boundInvoker func(ctx context.Context, req Request) (any, error)

// CommandSpec is what a HandlerContainer contributes per command.
type CommandSpec struct {
	Name        string
	Params      []ParamDescriptor
	Permissions PermissionSpec
	// Handler is a concrete Go function. Its signature must be one of:
	//   func(args...) (R, error)
	//   func(ctx context.Context, args...) (R, error)
	//   func() error / func(ctx context.Context) error
	// where args... matches Params by position, or is a single Request
	// (KindOpaqueRequest) or a single tagged-record struct (KindRecord,
	// POJO-flattened from the whole args object).
	Handler any
}

// CommandDescriptor is the registry's internal record for one command
// (spec §3 "Command descriptor").
type CommandDescriptor struct {
	Name        string
	Params      []ParamDescriptor
	Permissions PermissionSpec
	invoke      boundInvoker
}

// HandlerContainer is an opaque value that contributes zero or more
// commands; discovery of containers (static list, explicit registration,
// plugin-provided) is orthogonal to the registry itself.
type HandlerContainer interface {
	Commands() []CommandSpec
}
