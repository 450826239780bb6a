// Package vlog provides the structured logger every other package in
// this module accepts as an explicit dependency. It wraps log/slog,
// optionally rotating to disk via lumberjack.
package vlog

import (
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger embeds *slog.Logger so callers can use the full slog API
// (With, Group, ...) while still getting the rotation/start-time
// bookkeeping below.
type Logger struct {
	*slog.Logger
	Start time.Time
}

// Options configures a Logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to info.
	Level string
	// FilePath, if non-empty, rotates JSON logs through lumberjack
	// instead of writing text to stderr.
	FilePath string
	MaxSizeMB int
}

// New constructs a Logger. With no FilePath it logs human-readable text
// to stderr, suitable for the CLI front-end; with a FilePath it logs
// rotated JSON, suitable for a long-running service embedding this
// module.
func New(opts Options) *Logger {
	level := slog.LevelInfo
	switch opts.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var w io.Writer = os.Stderr
	var handler slog.Handler
	if opts.FilePath != "" {
		maxSize := opts.MaxSizeMB
		if maxSize == 0 {
			maxSize = 32
		}
		w = &lumberjack.Logger{
			Filename: opts.FilePath,
			MaxSize:  maxSize,
			MaxAge:   14,
			Compress: true,
		}
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	return &Logger{
		Logger: slog.New(handler),
		Start:  time.Now(),
	}
}

// Nop returns a Logger that discards everything, for tests and for
// pure-computation call sites that don't want to thread a logger
// through.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
