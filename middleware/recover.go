package middleware

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"waylink/wire"
)

// Recover converts a handler panic into an error so one bad message (for
// example a handler reaching for a file descriptor the cursor cannot
// supply) does not take down the connection's read loop.
func Recover(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *wire.Message) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error().
						Uint32("object", msg.Object).
						Uint16("opcode", msg.Opcode).
						Interface("panic", r).
						Msg("handler panicked")
					err = fmt.Errorf("middleware: handler panicked: %v", r)
				}
			}()
			return next(ctx, msg)
		}
	}
}
