// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets the global logger.  Development environments get the
// human-readable console writer; everything else logs JSON lines.
func Init(service, env string) zerolog.Logger {
	return InitWriter(os.Stdout, service, env)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, service, env string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isDev(env) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().
			Timestamp().
			Str("service", service).
			Logger()
	} else {
		log.Logger = zerolog.New(w).
			With().
			Timestamp().
			Caller().
			Str("service", service).
			Logger()
	}
	return log.Logger
}

func isDev(env string) bool {
	switch env {
	case "dev", "development", "local":
		return true
	}
	return false
}
