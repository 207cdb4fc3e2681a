package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger. env comes from Config.AppEnv:
// "dev" or "development" gets a human-friendly console writer with a
// service tag, anything else emits JSON lines for log shipping.
func NewLogger(env string) zerolog.Logger {
	if env == "dev" || env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Str("service", "placepulse").Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", "placepulse").Logger()
}
