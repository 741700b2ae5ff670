// Package logging builds the process logger from the [log] config section.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/natefinch/lumberjack"

	"github.com/pdfseal/pdfseal/config"
)

const (
	TypeConsole = "console"
	TypeFile    = "file"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger for cfg. Console loggers write text to console,
// file loggers write JSON to a size-rotated file. The returned closer
// releases the log file.
func New(cfg config.Log, console io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	switch cfg.Type {
	case TypeConsole, "":
		return slog.New(slog.NewTextHandler(console, opts)), nopCloser{}, nil
	case TypeFile:
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("file path required for file logger")
		}
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		return slog.New(slog.NewJSONHandler(writer, opts)), writer, nil
	default:
		return nil, nil, fmt.Errorf("unsupported log type: %s", cfg.Type)
	}
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
