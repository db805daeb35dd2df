// Package logging configures the process-wide slog logger. Records are JSON,
// written to stderr and optionally to a size-rotated file. Stdout is left to
// the CLI for run summaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options controls logger construction.
type Options struct {
	Level      string // debug, info, warn or error
	FilePath   string // log file path, empty disables file output
	MaxSizeMB  int64  // file size that triggers rotation
	MaxBackups int    // rotated files kept per log file
	Quiet      bool   // suppress stderr output
}

// DefaultOptions returns the standard logging setup: info-level JSON on
// stderr, no file.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		MaxSizeMB:  50,
		MaxBackups: 3,
	}
}

// ParseLevel maps a level name to its slog.Level. Unknown names fall back
// to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	var writers []io.Writer

	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return nil, err
		}
		fw, err := newRotatingWriter(opts.FilePath, opts.MaxSizeMB*1024*1024, opts.MaxBackups)
		if err != nil {
			return nil, err
		}
		writers = append(writers, fw)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	return slog.New(handler), nil
}

// Setup builds a logger from opts and installs it as the slog default.
func Setup(opts Options) error {
	logger, err := New(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
