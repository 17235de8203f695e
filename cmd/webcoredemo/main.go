// Command webcoredemo assembles every webcore component into a runnable
// desktop application shell, wired the way a real embedder would: config
// file plus env overrides, a couple of demo command handlers, and the
// blocking C12 run loop.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/webcore-dev/webcore/internal/app"
	"github.com/webcore-dev/webcore/internal/commands"
	"github.com/webcore-dev/webcore/internal/config"
	"github.com/webcore-dev/webcore/internal/logging"
)

func main() {
	configPath := getEnv("WEBCORE_CONFIG_FILE", "webcore.toml")

	log.Println("Loading configuration...")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("Initializing structured logging...")
	if err := logging.Init(logging.Config{
		Level:        cfg.Log.Level,
		Pretty:       cfg.Log.Pretty,
		FilePath:     cfg.Log.FilePath,
		MaxSizeBytes: cfg.Log.MaxSizeBytes,
		MaxFiles:     cfg.Log.MaxFiles,
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	libName := getEnv("WEBCORE_WEBVIEW_LIBRARY", "webview")

	log.Println("Constructing application core...")
	core, err := app.New(cfg, libName, app.Options{
		Containers: []commands.HandlerContainer{demoCommands{}},
		UserAgent:  cfg.App.Name + "/" + cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to construct application: %v", err)
	}

	content := app.ContentOptions{
		DevURL:     cfg.App.DevURL,
		AssetDir:   getEnv("WEBCORE_ASSET_DIR", ""),
		InlineHTML: getEnv("WEBCORE_INLINE_HTML", ""),
	}

	log.Println("Starting webcore...")
	if err := core.Run(content); err != nil {
		log.Fatalf("webcore exited with error: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// demoCommands is a minimal built-in handler container showing how a host
// program contributes its own commands alongside whatever plugins add.
type demoCommands struct{}

func (demoCommands) Commands() []commands.CommandSpec {
	return []commands.CommandSpec{
		{
			Name:   "demo.ping",
			Params: nil,
			Handler: func() (string, error) {
				return "pong", nil
			},
		},
		{
			Name:   "demo.echo",
			Params: []commands.ParamDescriptor{{Name: "message", Kind: commands.KindString}},
			Handler: func(message string) (string, error) {
				return message, nil
			},
		},
		{
			Name: "demo.about",
			Handler: func() (json.RawMessage, error) {
				return json.RawMessage(`{"name":"webcore","kind":"demo"}`), nil
			},
		},
	}
}
