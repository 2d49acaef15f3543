package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"waylink/discovery"
	"waylink/object"
	"waylink/schema"
	"waylink/wire"
)

// Callback is the barrier interface: a request that carries a new
// callback id gets a single done event once the display has processed
// everything before it. RoundTrip builds on it.
var Callback = schema.Interface{
	Name:    "callback",
	Version: 1,
	Events: []schema.Op{
		{Name: "done", Signature: "u"},
	},
}

// ErrClosed reports an operation on a client whose connection is gone.
var ErrClosed = errors.New("transport: connection closed")

// Client owns one connection to a display. A background goroutine
// (recvLoop) continuously reads events and dispatches them through the
// client's object registry, so handlers run in event order:
//
//	display ──events──→ recvLoop ──→ objects.Dispatch ──→ handler
//	caller  ──Send / RoundTrip──→ write-locked conn
//
// The object registry itself is not goroutine-safe; the client serializes
// access between the caller and the recvLoop with its own mutex. Handlers
// run inside the event loop under that mutex, so they must not call back
// into Bind, NewObject, or Release; hand registry changes to another
// goroutine, the way RoundTrip does.
type Client struct {
	conn    *Conn
	logger  zerolog.Logger
	mu      sync.Mutex // guards objects against recvLoop vs caller races
	objects *object.Registry

	done    chan struct{} // closed when recvLoop exits
	readErr error         // set before done is closed
}

// Dial connects to a display socket and starts the event loop.
func Dial(network, addr string, logger zerolog.Logger) (*Client, error) {
	raw, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:    NewConn(raw),
		logger:  logger,
		objects: object.NewRegistry(object.ClientSide),
		done:    make(chan struct{}),
	}
	go c.recvLoop()
	return c, nil
}

// DialDisplay resolves a named display through the registry and connects
// to the first reachable endpoint.
func DialDisplay(reg discovery.Registry, display string, logger zerolog.Logger) (*Client, error) {
	eps, err := reg.Discover(display)
	if err != nil {
		return nil, err
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("transport: no endpoints advertised for display %q", display)
	}
	for _, ep := range eps {
		c, err := Dial(ep.Network, ep.Addr, logger)
		if err == nil {
			return c, nil
		}
		logger.Warn().Str("addr", ep.Addr).Err(err).Msg("endpoint unreachable, trying next")
	}
	return nil, fmt.Errorf("transport: no reachable endpoint for display %q", display)
}

// Bind attaches a handler to an object id chosen by protocol convention
// or announced by the display.
func (c *Client) Bind(id uint32, iface schema.Interface, h object.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects.Add(id, iface, h)
}

// NewObject allocates a fresh client-side id and attaches a handler. The
// id still has to be announced to the display by a new_id-carrying
// request before events can arrive for it.
func (c *Client) NewObject(iface schema.Interface, h object.Handler) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects.New(iface, h)
}

// Release drops a local object binding.
func (c *Client) Release(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects.Delete(id)
}

// Send writes one request to the display.
func (c *Client) Send(msg *wire.Message) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	default:
	}
	return c.conn.WriteMessage(msg)
}

// RoundTrip is a synchronization barrier: it allocates a callback object,
// sends the request produced by build (which must carry the callback id),
// and waits until the display's done event lands, proving every earlier
// message has been processed.
func (c *Client) RoundTrip(ctx context.Context, build func(callbackID uint32) *wire.Message) error {
	fired := make(chan struct{})
	var once sync.Once

	id, err := c.NewObject(Callback, object.HandlerFunc(func(context.Context, *wire.Message) error {
		once.Do(func() { close(fired) })
		return nil
	}))
	if err != nil {
		return err
	}
	defer c.Release(id)

	if err := c.Send(build(id)); err != nil {
		return err
	}

	select {
	case <-fired:
		return nil
	case <-c.done:
		return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down the connection and waits for the event loop to exit.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// recvLoop is the connection's single reader. Events are dispatched
// sequentially (the protocol's ordering guarantees depend on it) and a
// dispatch failure is logged rather than fatal: one unroutable event does
// not invalidate the stream, unlike a framing error.
func (c *Client) recvLoop() {
	defer close(c.done)
	ctx := context.Background()
	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			if !errors.Is(err, net.ErrClosed) {
				c.logger.Debug().Err(err).Msg("connection lost")
			}
			return
		}
		c.mu.Lock()
		err = c.objects.Dispatch(ctx, msg)
		c.mu.Unlock()
		if err != nil {
			c.logger.Warn().
				Uint32("object", msg.Object).
				Uint16("opcode", msg.Opcode).
				Err(err).
				Msg("event dropped")
		}
	}
}
