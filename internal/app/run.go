package app

import (
	"github.com/webcore-dev/webcore/internal/apperr"
	"github.com/webcore-dev/webcore/internal/assetserver"
	"github.com/webcore-dev/webcore/internal/plugins"
	"github.com/webcore-dev/webcore/internal/updater"
	"github.com/webcore-dev/webcore/internal/webview"
	"github.com/webcore-dev/webcore/internal/windows"
)

// ContentOptions picks which of spec §4.12 step 7's three content sources
// the main window loads, in priority order: DevURL, then AssetDir (via the
// local asset server), then InlineHTML, then a built-in landing page.
type ContentOptions struct {
	DevURL     string
	AssetDir   string
	InlineHTML string
}

const defaultLandingPage = `<!doctype html><html><head><meta charset="utf-8"><title>webcore</title></head><body><h1>webcore</h1><p>No content configured.</p></body></html>`

// Run executes the C12 startup sequence, blocks in the main window's run
// loop, and then executes the shutdown sequence before returning. content
// selects what the main window displays; the application's own command
// containers were already registered by New.
func (c *Core) Run(content ContentOptions) error {
	winOpts := windows.Options{
		Title:  c.Config.Window.Title,
		Width:  c.Config.Window.Width,
		Height: c.Config.Window.Height,
		Hint:   webview.HintNone,
	}

	// Step 1: create the main window (C7 + C3).
	host, err := c.Windows.Create("main", winOpts)
	if err != nil {
		return err
	}

	// Steps 2-3 (registry + containers) already happened in New; construct
	// the bridge for this window now.
	if err := c.Bridge.Install(host); err != nil {
		return err
	}

	// Step 5: install the global error handler, recent-commands source is
	// already wired to the bridge in New.
	c.CrashReport.Install()

	// Step 6: load and initialize plugins, register their handlers.
	pluginCtx := c.pluginContext()
	if _, err := c.Plugins.InitializeAll(pluginCtx); err != nil {
		return err
	}
	if err := c.Plugins.CollectAndRegister(pluginCtx, c.Commands); err != nil {
		return err
	}

	// Step 7: apply content.
	if err := c.applyContent(host, content); err != nil {
		return err
	}

	if c.Updater != nil && c.Config.Updater.Schedule != "" {
		sched, err := c.Updater.StartBackgroundChecks(c.Config.Updater.Schedule, c.onUpdateResult)
		if err == nil {
			c.updaterSched = sched
		}
	}

	// Step 8: emit app:ready.
	c.Events.Broadcast("app:ready", nil)

	// Step 9: block in the main window's run loop.
	host.Run()

	// Step 10: shutdown sequence.
	c.shutdown(pluginCtx)
	return nil
}

func (c *Core) applyContent(host webview.Host, content ContentOptions) error {
	switch {
	case content.DevURL != "":
		host.Navigate(content.DevURL)
	case content.AssetDir != "":
		srv, err := assetserver.Start(content.AssetDir)
		if err != nil {
			return err
		}
		c.assetServer = srv
		host.Navigate(srv.BaseURL())
	case content.InlineHTML != "":
		host.SetHTML(content.InlineHTML)
	default:
		host.SetHTML(defaultLandingPage)
	}
	return nil
}

func (c *Core) onUpdateResult(info *updater.UpdateInfo, err error) {
	if err != nil {
		c.log.Warn().Err(err).Msg("scheduled update check failed")
		c.Events.Broadcast("updater:error", map[string]string{"message": apperr.Message(err)})
		return
	}
	if info != nil {
		c.Events.Broadcast("updater:available", info)
	}
}

func (c *Core) shutdown(pluginCtx *plugins.Context) {
	c.Events.Broadcast("app:window-all-closed", nil)
	c.Events.Broadcast("app:before-quit", nil)

	if c.updaterSched != nil {
		c.updaterSched.Stop()
	}

	c.Plugins.ShutdownAll(pluginCtx)
	c.CrashReport.Uninstall()

	if c.assetServer != nil {
		_ = c.assetServer.Close()
	}
}
