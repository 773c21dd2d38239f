package config

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// SetupLogger настраивает глобальный slog-логгер сервера.
func SetupLogger(cfg *Config) *slog.Logger {
	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

// SetupClientLogger создаёт логгер CLI. Формат "auto" выбирает текстовый
// вывод для терминала и JSON для перенаправленного stderr.
func SetupClientLogger(cfg *ClientConfig) *slog.Logger {
	format := cfg.LogFormat
	if format == "auto" {
		format = "json"
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = "text"
		}
	}
	return newLogger(os.Stderr, cfg.LogLevel, format)
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
