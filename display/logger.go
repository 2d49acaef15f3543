package display

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds a console logger at the named level ("trace" through
// "error"); unknown names fall back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Str("app", "waylink").Logger().Level(lvl)
}
