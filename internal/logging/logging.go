// Package logging provides structured logging for the vent launcher.
package logging

import (
	"io"
	"log/slog"
	"log/syslog"
	"os"
	"strings"
)

// Tag is the syslog identifier; `journalctl --identifier=vent` finds it.
const Tag = "vent"

// Config holds logging configuration.
type Config struct {
	Format string `yaml:"format" env:"FORMAT"` // "text", "json" or "syslog"
	Level  string `yaml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
}

// DefaultConfig returns the kiosk logging defaults.
func DefaultConfig() Config {
	return Config{
		Format: "text",
		Level:  "debug",
	}
}

var logger *slog.Logger

// Setup initializes the global logger with the given configuration.
// A syslog format that cannot reach the local daemon falls back to stderr.
func Setup(cfg Config) {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "syslog":
		handler = slog.NewTextHandler(syslogWriter(), opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func syslogWriter() io.Writer {
	w, err := syslog.New(syslog.LOG_USER|syslog.LOG_DEBUG, Tag)
	if err != nil {
		return os.Stderr
	}
	return w
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the configured logger, or the default if not set up.
func Get() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
