// Package logging builds the process logger: structured JSON lines to an
// optional log file, mirrored to stderr for warnings and errors (or for
// everything when debug mode is on).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"copilotmcp/internal/config"
)

// New builds a logger from settings. A log file that cannot be opened is a
// warning, never a startup failure.
func New(cfg config.Settings) *slog.Logger {
	var fileW io.Writer
	if cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: log file unavailable: %v\n", err)
		} else {
			fileW = f
		}
	}
	return build(cfg, fileW, os.Stderr)
}

// build assembles the handler chain; split out so tests can inject writers.
func build(cfg config.Settings, fileW, consoleW io.Writer) *slog.Logger {
	consoleLevel := cfg.LogLevel
	if !cfg.Debug && consoleLevel < slog.LevelWarn {
		consoleLevel = slog.LevelWarn
	}

	handlers := make([]slog.Handler, 0, 2)
	if fileW != nil {
		handlers = append(handlers, slog.NewJSONHandler(fileW, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	handlers = append(handlers, slog.NewTextHandler(consoleW, &slog.HandlerOptions{Level: consoleLevel}))

	return slog.New(&teeHandler{handlers: handlers})
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// teeHandler fans records out to every handler whose level admits them.
type teeHandler struct {
	handlers []slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
