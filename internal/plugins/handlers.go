package plugins

import "github.com/webcore-dev/webcore/internal/commands"

// specList adapts a plain []commands.CommandSpec to commands.HandlerContainer.
type specList []commands.CommandSpec

func (s specList) Commands() []commands.CommandSpec { return s }

// CollectAndRegister gathers each initialized plugin's command handlers and
// registers them into registry one plugin at a time, in initialization
// order — so a later plugin's CommandHandlers call sees earlier plugins'
// commands already present in ctx.Commands (spec §4.8).
func (l *Loader) CollectAndRegister(ctx *Context, registry *commands.Registry) error {
	for _, p := range l.Initialized() {
		specs := p.CommandHandlers(ctx)
		if len(specs) == 0 {
			continue
		}
		if err := registry.RegisterContainer(specList(specs)); err != nil {
			return err
		}
	}
	return nil
}
