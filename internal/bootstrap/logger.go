package bootstrap

import (
	"log/slog"
	"os"
	"strings"

	"avatar-chat/internal/config"
)

// NewLogger returns a text logger for local development and JSON everywhere
// else.
func NewLogger(cfg config.AppConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Env, "dev") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("app", cfg.Name)
}
