package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"Warn", slog.LevelWarn},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewWritesLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "webgrab.log")

	logger, err := New(Options{
		Level:      "debug",
		FilePath:   logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		Quiet:      true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("crawl started", "url", "https://example.com/")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("log file is empty after Info()")
	}
}

func TestNewCreatesLogDirectory(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "nested", "webgrab.log")

	logger, err := New(Options{FilePath: logFile, MaxSizeMB: 1, Quiet: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello")

	if _, err := os.Stat(logFile); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestNewQuietWithoutFile(t *testing.T) {
	logger, err := New(Options{Quiet: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// Must not panic with no writers configured.
	logger.Info("discarded")
}

func TestSetupInstallsDefault(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "webgrab.log")

	prev := slog.Default()
	defer slog.SetDefault(prev)

	err := Setup(Options{Level: "debug", FilePath: logFile, MaxSizeMB: 1, Quiet: true})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("via default logger")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("default logger wrote nothing at debug level")
	}
}
