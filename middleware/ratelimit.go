package middleware

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"waylink/wire"
)

// ErrThrottled reports a message dropped because the client exceeded its
// message rate budget.
var ErrThrottled = errors.New("middleware: message rate limit exceeded")

// RateLimit drops messages beyond a token-bucket budget. Build one per
// connection so a flooding client only throttles itself.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg *wire.Message) error {
			if !limiter.Allow() {
				return ErrThrottled
			}
			return next(ctx, msg)
		}
	}
}
