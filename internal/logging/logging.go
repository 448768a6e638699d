// Package logging builds the diagnostics logger shared by every component.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"auri/internal/config"
)

// EnvLogLevel overrides the level from the settings file.
const EnvLogLevel = "AURI_LOG_LEVEL"

// New returns a logger writing to w and installs it as the zerolog global.
func New(cfg config.LoggingSettings, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, ok := ParseLevel(os.Getenv(EnvLogLevel))
	if !ok {
		level, _ = ParseLevel(cfg.Level)
	}
	out := w
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", "auri").Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a settings or environment level name onto zerolog.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
