// Package app implements C12: the fixed startup/shutdown sequence that
// assembles every other component into one running application and owns
// the blocking run loop.
package app

import (
	"github.com/rs/zerolog"

	"github.com/webcore-dev/webcore/internal/bridge"
	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/config"
	"github.com/webcore-dev/webcore/internal/crashreport"
	"github.com/webcore-dev/webcore/internal/events"
	"github.com/webcore-dev/webcore/internal/logging"
	"github.com/webcore-dev/webcore/internal/nativelib"
	"github.com/webcore-dev/webcore/internal/permissions"
	"github.com/webcore-dev/webcore/internal/plugins"
	"github.com/webcore-dev/webcore/internal/updater"
	"github.com/webcore-dev/webcore/internal/windows"
)

// Core is the single process-wide value threading the window manager, the
// command registry, and the recent-commands buffer to every consumer
// (spec §4.12's "Global state" note: a constructed-once value, not a true
// singleton).
type Core struct {
	Config      config.Config
	Commands    *commands.Registry
	Windows     *windows.Manager
	Bridge      *bridge.Bridge
	Permissions *permissions.Checker
	Events      *events.Emitter
	CrashReport *crashreport.Handler
	Plugins     *plugins.Loader
	Updater     *updater.Updater

	assetServer  assetCloser
	updaterSched *updater.Scheduler
	log          zerolog.Logger
}

// assetCloser is the subset of *assetserver.Server this package needs,
// kept as an interface so tests can substitute a fake without starting a
// real HTTP listener.
type assetCloser interface {
	Close() error
}

// Options configures New beyond what lives in config.Config: everything
// here is supplied by the host program (cmd/webcoredemo or an embedder),
// not by the TOML/env config surface.
type Options struct {
	// Containers contributes the application's own command handlers,
	// registered before plugin handlers (spec §4.12 step 2).
	Containers []commands.HandlerContainer
	// Installer backs the updater's Install/Restart; nil disables those
	// operations (they return an error if called).
	Installer updater.Installer
	// UserAgent is the HTTP User-Agent the updater identifies itself with.
	UserAgent string
	// UserCrashHook receives every captured crashreport.Report in addition
	// to the built-in log/broadcast/persist handling.
	UserCrashHook crashreport.Hook
}

// New constructs every component in dependency order but does not yet
// create a window or start anything (that happens in Run). libName is the
// native webview shared library's base name (spec §4.2).
func New(cfg config.Config, libName string, opts Options) (*Core, error) {
	log := logging.For("app")

	registry := commands.NewRegistry()
	for _, c := range opts.Containers {
		if err := registry.RegisterContainer(c); err != nil {
			return nil, err
		}
	}

	checker := permissions.NewChecker(cfg.Grants, cfg.App.EnforcePermissions)

	loader := nativelib.NewLoader(nil, "", cfg.App.DataDir)
	winManager := windows.NewManager(loader, libName, cfg.App.Name)

	b := bridge.New(registry, checker, nil, cfg.App.Name, 64)

	handler := crashreport.New(winManager.Emitter(), b, cfg.App.DataDir, cfg.App.Version, opts.UserCrashHook, nil)
	b.SetFaultHandler(handler)

	pluginLoader := plugins.NewLoader()
	if err := pluginLoader.LoadBuiltins(); err != nil {
		return nil, err
	}

	var upd *updater.Updater
	if len(cfg.Updater.Endpoints) > 0 {
		var err error
		upd, err = updater.New(updater.Config{
			Endpoints:      cfg.Updater.Endpoints,
			CurrentVersion: cfg.App.Version,
			PublicKeyB64:   cfg.Updater.PublicKeyB64,
			Timeout:        durationSeconds(cfg.Updater.TimeoutSeconds),
			DownloadDir:    cfg.App.DataDir,
		}, opts.Installer, opts.UserAgent)
		if err != nil {
			return nil, err
		}
	}

	return &Core{
		Config:      cfg,
		Commands:    registry,
		Windows:     winManager,
		Bridge:      b,
		Permissions: checker,
		Events:      winManager.Emitter(),
		CrashReport: handler,
		Plugins:     pluginLoader,
		Updater:     upd,
		log:         log,
	}, nil
}
