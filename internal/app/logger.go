package app

import (
	"log/slog"
	"os"

	"github.com/andrewjfei/klick-server/internal/config"
)

// NewLogger logs JSON at info level in prod and text at debug level elsewhere.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == config.EnvProd {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
