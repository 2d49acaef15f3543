package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"waylink/wire"
)

// Logging emits one structured event per dispatched message: target
// object, opcode, argument word count, and how long the handler took.
func Logging(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *wire.Message) error {
			start := time.Now()
			err := next(ctx, msg)
			ev := logger.Debug()
			if err != nil {
				ev = logger.Warn().Err(err)
			}
			ev.Uint32("object", msg.Object).
				Uint16("opcode", msg.Opcode).
				Int("words", len(msg.Args)).
				Dur("took", time.Since(start)).
				Msg("dispatch")
			return err
		}
	}
}
