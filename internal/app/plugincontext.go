package app

import "github.com/webcore-dev/webcore/internal/plugins"

// pluginContext builds the Context handed to every plugin's Initialize,
// Shutdown, and CommandHandlers call.
func (c *Core) pluginContext() *plugins.Context {
	cfg := map[string]any{
		"app":     c.Config.App,
		"window":  c.Config.Window,
		"plugins": c.Config.Plugins,
	}
	return &plugins.Context{
		Windows:    c.Windows,
		Events:     c.Events,
		Commands:   c.Commands,
		AppDataDir: c.Config.App.DataDir,
		AppName:    c.Config.App.Name,
		AppVersion: c.Config.App.Version,
		Log:        c.log,
		Config:     cfg,
		IsGranted:  c.Permissions.IsGranted,
	}
}
