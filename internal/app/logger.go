package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nguyendangtritoan/german-note/internal/config"
)

// NewLogger creates the process logger from cfg, writes to os.Stderr and
// installs it as the slog default.
//
// Format "json" is the production format. Any other value selects the text
// handler with source locations. Level is one of debug, info, warn or error
// (case-insensitive) and defaults to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := slog.New(newHandler(os.Stderr, cfg)).With(slog.String("version", Version))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	json := strings.EqualFold(strings.TrimSpace(cfg.Format), "json")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: !json,
	}
	if json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
