// Package logging builds the zerolog root logger for webcore and hands out
// namespaced children, one per component — the structured equivalent of the
// teacher's "[Plugin Registry] ..." prefix convention in
// streamspace-dev-streamspace/api/internal/plugins.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the root logger.
type Config struct {
	// Level is one of zerolog's level strings ("debug", "info", "warn", ...).
	Level string
	// Pretty writes human-readable console output instead of JSON lines;
	// useful in development, off by default.
	Pretty bool
	// FilePath, when non-empty, additionally writes JSON-lines log entries
	// to this file (spec §6.4, "Log file (optional): JSON-lines").
	FilePath string
	// MaxSizeBytes and MaxFiles bound the optional log file via simple
	// size-based rotation (rename-on-exceed); zero disables rotation.
	MaxSizeBytes int64
	MaxFiles     int
}

var (
	mu   sync.Mutex
	root zerolog.Logger
	init_ bool
)

// Init configures the process-wide root logger. Safe to call once at
// startup; subsequent calls replace the root logger atomically.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.FilePath != "" {
		rw, err := newRotatingWriter(cfg.FilePath, cfg.MaxSizeBytes, cfg.MaxFiles)
		if err != nil {
			return err
		}
		writers = append(writers, rw)
	}

	var w io.Writer
	if len(writers) == 1 {
		w = writers[0]
	} else {
		w = zerolog.MultiLevelWriter(writers...)
	}

	root = zerolog.New(w).Level(level).With().Timestamp().Logger()
	init_ = true
	return nil
}

// For returns a logger namespaced to component. If Init was never called, a
// sane default (info level, stderr) is used so library code never panics on
// a nil logger.
func For(component string) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !init_ {
		root = zerolog.New(os.Stderr).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		init_ = true
	}
	return root.With().Str("component", component).Logger()
}
