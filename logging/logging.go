// Package logging builds the zerolog loggers used by sessions.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/omniql-engine/flatql/config"
)

// New returns a logger writing to w (stderr when nil) at the configured level.
// An unknown level falls back to info.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ForSession tags a logger with the session id and database.
func ForSession(log zerolog.Logger, id, database string) zerolog.Logger {
	return log.With().Str("session", id).Str("database", database).Logger()
}
