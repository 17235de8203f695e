package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/webcore-dev/webcore/internal/apperr"
)

// Registry holds every registered command, keyed by name. Reads are
// lock-free relative to each other (RWMutex), writes take the exclusive
// lock — matching spec §5's "concurrent mapping protected by per-key
// exclusivity on write; reads are lock-free" for the command table.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*CommandDescriptor
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*CommandDescriptor)}
}

// Register adds a single command. Re-registering an existing name fails
// loudly and leaves the registry unchanged (spec §3 invariant, tested
// property 1).
func (r *Registry) Register(spec CommandSpec) error {
	invoke, err := bind(spec.Name, spec.Params, spec.Handler)
	if err != nil {
		return apperr.Wrap(apperr.KindCommandDispatch, "invalid command handler", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[spec.Name]; exists {
		return apperr.Newf(apperr.KindCommandDispatch, "command %q already registered", spec.Name)
	}
	r.commands[spec.Name] = &CommandDescriptor{
		Name:        spec.Name,
		Params:      spec.Params,
		Permissions: spec.Permissions,
		invoke:      invoke,
	}
	return nil
}

// RegisterContainer registers every command a HandlerContainer contributes.
// On the first duplicate name the whole batch is rejected and no commands
// from this container are added (so a container never partially lands).
func (r *Registry) RegisterContainer(container HandlerContainer) error {
	specs := container.Commands()

	r.mu.Lock()
	for _, s := range specs {
		if _, exists := r.commands[s.Name]; exists {
			r.mu.Unlock()
			return apperr.Newf(apperr.KindCommandDispatch, "command %q already registered", s.Name)
		}
	}
	r.mu.Unlock()

	registered := make([]string, 0, len(specs))
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			for _, name := range registered {
				r.unregister(name)
			}
			return err
		}
		registered = append(registered, s.Name)
	}
	return nil
}

func (r *Registry) unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
}

// Lookup returns the descriptor for name, used by the permission checker
// (C9) before Invoke is called.
func (r *Registry) Lookup(name string) (*CommandDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.commands[name]
	return d, ok
}

// Invoke binds arguments and dispatches to the named command's handler,
// returning the JSON projection of its result. Any error here already
// carries the right apperr.Kind for C4 to turn into a failure envelope.
func (r *Registry) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	d, ok := r.Lookup(req.Cmd)
	if !ok {
		return nil, apperr.Newf(apperr.KindCommandUnknown, "unknown command %q", req.Cmd)
	}

	result, err := func() (out any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = apperr.Newf(apperr.KindCommandDispatch, "handler panicked: %v", rec)
			}
		}()
		return d.invoke(ctx, req)
	}()
	if err != nil {
		if ae, ok := err.(*apperr.Error); ok {
			return nil, ae
		}
		return nil, apperr.Wrap(apperr.KindCommandDispatch, err.Error(), err)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCommandDispatch, fmt.Sprintf("encoding result of %q", req.Cmd), err)
	}
	return encoded, nil
}

// Names returns every registered command name, for diagnostics (dev
// inspector, tests).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	return names
}
