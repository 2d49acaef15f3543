// Package display implements the server side of waylink: it owns the
// listening socket, accepts clients, and runs one message loop per client.
//
// Per-client pipeline:
//
//	Accept → handleConn (single goroutine reads frames, in order)
//	  → middleware chain (recover, rate limit, logging, ...)
//	    → object registry dispatch → bound handler
//
// Unlike a request/response RPC server, messages on one connection are
// processed strictly sequentially: the protocol's consistency depends on
// requests taking effect in the order the client issued them, so there is
// no per-message goroutine fan-out.
package display

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"waylink/config"
	"waylink/discovery"
	"waylink/middleware"
	"waylink/object"
	"waylink/schema"
	"waylink/wire"
)

// ProtocolVersion is advertised to discovery and carried in version
// negotiation.
const ProtocolVersion uint32 = 1

// Session is one connected client: its socket and its private object
// space. Handlers receive the session through SessionFrom and post events
// back through it.
type Session struct {
	conn    net.Conn
	writeMu sync.Mutex // events may be posted from any goroutine

	// Objects is this client's object registry. It is touched only by
	// the session's read loop and the OnSession bind hook, never
	// concurrently.
	Objects *object.Registry
}

// Post sends one event to the client, holding the write lock for the
// whole frame.
func (s *Session) Post(msg *wire.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return msg.Send(s.conn)
}

type sessionKey struct{}

// SessionFrom extracts the session a message arrived on.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}

// Display is the server: a listener plus everything shared across client
// sessions.
type Display struct {
	cfg         config.Config
	logger      zerolog.Logger
	listener    net.Listener
	wg          sync.WaitGroup // tracks live sessions for graceful shutdown
	shutdown    atomic.Bool    // suppresses Accept errors during Close
	clients     atomic.Int32
	middlewares []middleware.Middleware
	bind        func(*Session) error

	registry      discovery.Registry // nil when not advertising
	advertiseAddr string
}

// New creates a display from its configuration.
func New(cfg config.Config, logger zerolog.Logger) *Display {
	return &Display{cfg: cfg, logger: logger}
}

// Use appends a middleware to every session's dispatch chain, applied in
// registration order after the built-in recover and rate-limit stages.
func (d *Display) Use(mw middleware.Middleware) {
	d.middlewares = append(d.middlewares, mw)
}

// OnSession registers the bind hook that seeds each new client's object
// registry, at minimum the display object every client addresses first.
func (d *Display) OnSession(bind func(*Session) error) {
	d.bind = bind
}

// Serve listens per the configuration and accepts clients until Close.
//
// advertiseAddr is the address registered in discovery for remote
// displays; it differs from the listen address because a wildcard listen
// address is not dialable. An empty advertiseAddr falls back to the
// listener's bound address. Pass a nil registry to skip advertisement,
// the normal case for a local unix-socket display.
func (d *Display) Serve(reg discovery.Registry, advertiseAddr string) error {
	listener, err := net.Listen(d.cfg.Network, d.cfg.Addr)
	if err != nil {
		return err
	}
	d.listener = listener

	if reg != nil {
		if advertiseAddr == "" {
			advertiseAddr = listener.Addr().String()
		}
		d.registry = reg
		d.advertiseAddr = advertiseAddr
		err := reg.Register(d.cfg.Discovery.Display, discovery.Endpoint{
			Network: d.cfg.Network,
			Addr:    advertiseAddr,
			Version: ProtocolVersion,
		}, d.cfg.Discovery.TTL)
		if err != nil {
			listener.Close()
			return fmt.Errorf("display: advertise endpoint: %w", err)
		}
	}

	d.logger.Info().
		Str("network", d.cfg.Network).
		Str("addr", d.cfg.Addr).
		Msg("display listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Close() closes the listener; the resulting Accept error
			// is the intended shutdown path, not a failure.
			if d.shutdown.Load() {
				return nil
			}
			return err
		}
		go d.handleConn(conn)
	}
}

// Close stops accepting, withdraws the discovery advertisement, and waits
// for in-flight sessions to finish their current message.
func (d *Display) Close() error {
	d.shutdown.Store(true)
	if d.registry != nil {
		if err := d.registry.Deregister(d.cfg.Discovery.Display, d.advertiseAddr); err != nil {
			d.logger.Warn().Err(err).Msg("deregister failed")
		}
	}
	var err error
	if d.listener != nil {
		err = d.listener.Close()
	}
	d.wg.Wait()
	return err
}

// handleConn runs one client session to completion.
func (d *Display) handleConn(conn net.Conn) {
	d.wg.Add(1)
	defer d.wg.Done()
	defer conn.Close()

	if max := d.cfg.MaxClients; max > 0 && d.clients.Add(1) > int32(max) {
		d.clients.Add(-1)
		d.logger.Warn().Msg("client rejected: at capacity")
		return
	} else if max > 0 {
		defer d.clients.Add(-1)
	}

	session := &Session{
		conn:    conn,
		Objects: object.NewRegistry(object.ServerSide),
	}
	if d.bind != nil {
		if err := d.bind(session); err != nil {
			d.logger.Error().Err(err).Msg("session bind failed")
			return
		}
	}

	// Built-in stages first, then whatever the embedder registered.
	mws := []middleware.Middleware{middleware.Recover(d.logger)}
	if d.cfg.RateLimit.Rate > 0 {
		mws = append(mws, middleware.RateLimit(d.cfg.RateLimit.Rate, d.cfg.RateLimit.Burst))
	}
	mws = append(mws, d.middlewares...)
	handler := middleware.Chain(mws...)(session.Objects.Dispatch)

	ctx := context.WithValue(context.Background(), sessionKey{}, session)
	for {
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			if errors.Is(err, wire.ErrFraming) {
				// The size field is the only framing signal; after a bad
				// one the stream position is unrecoverable.
				d.logger.Error().Err(err).Msg("client desynchronized, dropping connection")
			}
			return
		}
		if err := handler(ctx, msg); err != nil {
			// A bad message is the client's problem, not the stream's:
			// log it and keep reading.
			d.logger.Warn().
				Uint32("object", msg.Object).
				Uint16("opcode", msg.Opcode).
				Err(err).
				Msg("request failed")
		}
	}
}

// BindDisplayObject is a convenience for the common OnSession hook: it
// binds the well-known display object at id 1 with the given interface
// and handler factory.
func BindDisplayObject(iface schema.Interface, build func(*Session) object.Handler) func(*Session) error {
	return func(s *Session) error {
		return s.Objects.Add(1, iface, build(s))
	}
}
