// Package plugins implements C8: plugin discovery, dependency ordering,
// lifecycle, and command-handler collection.
package plugins

import (
	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/events"
	"github.com/webcore-dev/webcore/internal/windows"
)

// CommandRegistry is the read-only slice of the command registry a plugin
// may consult from Context.Commands (spec §4.8: "command registry
// (read-only access)").
type CommandRegistry interface {
	Lookup(name string) (*commands.CommandDescriptor, bool)
	Names() []string
}

// Context is handed to every plugin's Initialize and Shutdown call.
type Context struct {
	Windows     *windows.Manager
	Events      *events.Emitter
	Commands    CommandRegistry
	AppDataDir  string
	AppName     string
	AppVersion  string
	Log         zerolog.Logger
	Config      map[string]any
	IsGranted   func(key string) bool
}

// Plugin is implemented by every loadable extension module, whether
// built-in, explicitly registered, or proxied from an out-of-process
// artifact (internal/pluginhost).
type Plugin interface {
	Name() string
	Dependencies() []string
	Initialize(ctx *Context) error
	Shutdown(ctx *Context) error
	CommandHandlers(ctx *Context) []commands.CommandSpec
}

// BasePlugin supplies no-op defaults for everything but Name/Dependencies,
// so a concrete plugin only overrides what it needs.
type BasePlugin struct {
	PluginName string
	Deps       []string
}

func (p *BasePlugin) Name() string           { return p.PluginName }
func (p *BasePlugin) Dependencies() []string { return p.Deps }

func (p *BasePlugin) Initialize(ctx *Context) error { return nil }
func (p *BasePlugin) Shutdown(ctx *Context) error   { return nil }

func (p *BasePlugin) CommandHandlers(ctx *Context) []commands.CommandSpec { return nil }
