// Package config loads webcore's static configuration from a TOML file and
// applies environment-variable overrides, mirroring the teacher's
// cmd/main.go getEnv/getEnvInt convention (streamspace-dev-streamspace/api)
// generalized to a file-backed config instead of pure env vars.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration.
type Config struct {
	App      AppConfig      `toml:"app"`
	Window   WindowConfig   `toml:"window"`
	Log      LogConfig      `toml:"log"`
	Updater  UpdaterConfig  `toml:"updater"`
	Plugins  PluginsConfig  `toml:"plugins"`
	Grants   []string       `toml:"grants"`
}

type AppConfig struct {
	Name       string `toml:"name"`
	Version    string `toml:"version"`
	DataDir    string `toml:"data_dir"`
	DevURL     string `toml:"dev_url"`
	EnforcePermissions bool `toml:"enforce_permissions"`
}

type WindowConfig struct {
	Width           int    `toml:"width"`
	Height          int    `toml:"height"`
	Title           string `toml:"title"`
	PersistState    bool   `toml:"persist_state"`
	StateFile       string `toml:"state_file"`
}

type LogConfig struct {
	Level    string `toml:"level"`
	Pretty   bool   `toml:"pretty"`
	FilePath string `toml:"file_path"`
	MaxSizeBytes int64 `toml:"max_size_bytes"`
	MaxFiles     int   `toml:"max_files"`
}

type UpdaterConfig struct {
	Endpoints      []string `toml:"endpoints"`
	PublicKeyB64   string   `toml:"public_key_base64"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Schedule       string   `toml:"schedule"`
}

type PluginsConfig struct {
	Dir     string `toml:"dir"`
	Enabled []string `toml:"enabled"`
}

// Default returns the baseline configuration used when no file is present.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:               "webcore-app",
			Version:            "0.0.0",
			DataDir:            ".webcore",
			EnforcePermissions: true,
		},
		Window: WindowConfig{
			Width:  1024,
			Height: 768,
			Title:  "webcore",
		},
		Log: LogConfig{
			Level: "info",
		},
		Updater: UpdaterConfig{
			TimeoutSeconds: 10,
		},
		Plugins: PluginsConfig{
			Dir: "plugins",
		},
	}
}

// Load reads path (if it exists) over the default config, then applies
// WEBCORE_-prefixed environment overrides for the fields most commonly
// tuned per-deployment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WEBCORE_APP_NAME"); v != "" {
		cfg.App.Name = v
	}
	if v := os.Getenv("WEBCORE_APP_VERSION"); v != "" {
		cfg.App.Version = v
	}
	if v := os.Getenv("WEBCORE_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("WEBCORE_DEV_URL"); v != "" {
		cfg.App.DevURL = v
	}
	if v := os.Getenv("WEBCORE_ENFORCE_PERMISSIONS"); v != "" {
		cfg.App.EnforcePermissions = v == "true"
	}
	if v := os.Getenv("WEBCORE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WEBCORE_PLUGIN_DIR"); v != "" {
		cfg.Plugins.Dir = v
	}
	if v := os.Getenv("WEBCORE_WINDOW_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Window.Width = n
		}
	}
	if v := os.Getenv("WEBCORE_WINDOW_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Window.Height = n
		}
	}
}
