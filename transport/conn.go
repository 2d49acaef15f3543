// Package transport implements the client side of a waylink connection:
// write-locked message framing over a socket, plus a Client that owns the
// connection's object registry and routes incoming events to handlers.
package transport

import (
	"net"
	"sync"

	"waylink/wire"
)

// Conn frames messages over a single socket.
//
// Reads must come from one goroutine: the stream's only framing signal is
// the size field, so concurrent readers would tear frames apart. Writes
// may come from many goroutines: the sending mutex plus Send's single
// Write call keep each frame contiguous on the wire.
type Conn struct {
	raw     net.Conn
	sending sync.Mutex
}

// NewConn wraps an established socket.
func NewConn(raw net.Conn) *Conn {
	return &Conn{raw: raw}
}

// WriteMessage sends one message, holding the write lock for the whole
// frame.
func (c *Conn) WriteMessage(msg *wire.Message) error {
	c.sending.Lock()
	defer c.sending.Unlock()
	return msg.Send(c.raw)
}

// ReadMessage decodes the next message off the socket. Single reader only.
func (c *Conn) ReadMessage() (*wire.Message, error) {
	return wire.ReadMessage(c.raw)
}

// Close closes the underlying socket, failing any blocked read or write.
func (c *Conn) Close() error {
	return c.raw.Close()
}
