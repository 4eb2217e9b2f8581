package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"

	"github.com/elee1766/playground/src/config"
)

// createLogger picks the handler for the configured logging destination.
// The returned closer releases the log file, if one was opened.
func createLogger(cfg config.LoggingConfig, stderr io.Writer) (*slog.Logger, func() error) {
	if cfg.File != "" {
		return createFileLogger(cfg.File, cfg.Level)
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.Level),
		})), noopClose
	}
	return createCLILogger(stderr, cfg.Level), noopClose
}

// createFileLogger creates a logger that doesn't interfere with the REPL
// by writing to a file instead of stdout/stderr
func createFileLogger(path, logLevel string) (*slog.Logger, func() error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		// If we can't create log directory, use discard logger
		return discardLogger(), noopClose
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return discardLogger(), noopClose
	}

	return slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: parseLogLevel(logLevel),
	})), file.Close
}

// createCLILogger creates a colored logger for CLI commands
func createCLILogger(w io.Writer, logLevel string) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: parseLogLevel(logLevel),
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func noopClose() error { return nil }

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
