// Package logging configures structured logging with log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logging options.
type Config struct {
	// Level is the minimum level to emit.
	Level slog.Level
	// JSON switches output from human-readable text to JSON lines.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig reads FINSIGHT_LOG_LEVEL (DEBUG, INFO, WARN, ERROR) and
// FINSIGHT_LOG_JSON from the environment. Level defaults to INFO.
func DefaultConfig() Config {
	level := slog.LevelInfo
	if v := os.Getenv("FINSIGHT_LOG_LEVEL"); v != "" {
		level = parseLevel(v)
	}

	return Config{
		Level:  level,
		JSON:   os.Getenv("FINSIGHT_LOG_JSON") == "true",
		Output: os.Stderr,
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a logger from cfg and installs it as the slog default.
func Setup(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
