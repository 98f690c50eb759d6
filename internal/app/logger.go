package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. JSON goes to log collectors in
// deployed environments, text is for local work. Every record carries
// the service and environment so the API and the worker share a stream.
func NewLogger(cfg *Config) *slog.Logger {
	env := "development"
	format := "pretty"
	if cfg != nil {
		env = cfg.AppEnv
		format = cfg.LogFormat
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true})
	}

	return slog.New(handler).With(
		slog.String("service", "crewdesk"),
		slog.String("env", env),
	)
}
