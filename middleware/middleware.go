// Package middleware wraps per-message dispatch with cross-cutting
// concerns: structured logging, client flood control, and panic recovery.
package middleware

import (
	"context"

	"waylink/wire"
)

type HandlerFunc func(ctx context.Context, msg *wire.Message) error

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one. Chain(A, B, C)(handler) wraps as
// A(B(C(handler))): A sees the message first and the result last.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
