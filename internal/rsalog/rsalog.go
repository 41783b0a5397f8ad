// Package rsalog provides the structured logger used across the
// routing tool's command-line entry points.
package rsalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"rsa/internal/config"
)

// Log is the process-wide logger, set by Init/InitWithConfig.
var Log *slog.Logger

func init() {
	Log = slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

// Init configures Log at the given level with JSON output to stdout.
func Init(level string) {
	InitWithConfig(config.LogConfig{Level: level, Format: "json", Output: "stdout"})
}

// InitWithConfig configures Log from a full LogConfig, switching between
// stdout/stderr/a lumberjack-rotated file and between JSON/text
// encoding.
func InitWithConfig(cfg config.LogConfig) {
	var lvl slog.Level
	switch cfg.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var writer io.Writer
	switch cfg.Output {
	case "stderr":
		writer = os.Stderr
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = "logs/rsa.log"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			writer = os.Stdout
		} else {
			writer = &lumberjack.Logger{
				Filename:   path,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
		}
	default:
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	Log = slog.New(handler)
}

// WithRound returns a logger tagged with the current routing round.
func WithRound(round int) *slog.Logger {
	return Log.With("round", round)
}

// WithDemand returns a logger tagged with a demand ID.
func WithDemand(demandID int) *slog.Logger {
	return Log.With("demand_id", demandID)
}

// Debug logs a debug message through Log.
func Debug(msg string, args ...any) { Log.Debug(msg, args...) }

// Info logs an info message through Log.
func Info(msg string, args ...any) { Log.Info(msg, args...) }

// Warn logs a warning message through Log.
func Warn(msg string, args ...any) { Log.Warn(msg, args...) }

// Error logs an error message through Log.
func Error(msg string, args ...any) { Log.Error(msg, args...) }

// Fatal logs an error message and terminates the process.
func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	os.Exit(1)
}
