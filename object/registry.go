// Package object tracks live object ids and dispatches decoded messages
// to the handler bound to each object.
//
// Each side of a connection owns one Registry holding its view of the
// shared object space. Ids are partitioned by side in the message stream:
// the client allocates from the low range, the server from the high range,
// so the two ends never race for an id. A Registry is not goroutine-safe;
// the connection's single read loop is the only caller by contract, and
// anything concurrent must be layered above it.
package object

import (
	"context"
	"errors"
	"fmt"

	"waylink/schema"
	"waylink/wire"
)

// Side identifies which end of the connection a Registry serves. It picks
// the id allocation range and the direction of incoming operations: a
// server receives requests, a client receives events.
type Side int

const (
	ClientSide Side = iota
	ServerSide
)

// Id ranges per side. The client starts at 1 (0 is the null object); the
// server allocates from the top range.
const (
	clientIDMin uint32 = 1
	clientIDMax uint32 = 0xfeffffff
	serverIDMin uint32 = 0xff000000
)

var (
	// ErrUnknownObject reports a message addressed to an id with no live
	// object behind it.
	ErrUnknownObject = errors.New("object: message addressed to unknown object")

	// ErrUnknownOpcode reports an opcode outside the target interface's
	// operation list.
	ErrUnknownOpcode = errors.New("object: opcode not defined by interface")

	// ErrDuplicateID reports an attempt to bind an id that is already live.
	ErrDuplicateID = errors.New("object: id already in use")

	// ErrIDSpaceExhausted reports that the side's allocation range is full.
	ErrIDSpaceExhausted = errors.New("object: id space exhausted")
)

// Handler consumes one decoded message addressed to its object. The
// handler drains the message's cursor in the order its interface schema
// dictates.
type Handler interface {
	HandleMessage(ctx context.Context, msg *wire.Message) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *wire.Message) error

func (f HandlerFunc) HandleMessage(ctx context.Context, msg *wire.Message) error {
	return f(ctx, msg)
}

type entry struct {
	iface   schema.Interface
	handler Handler
}

// Registry maps live object ids to their interface and handler.
type Registry struct {
	side    Side
	objects map[uint32]entry
	nextID  uint32
}

// NewRegistry creates an empty registry for one side of a connection.
func NewRegistry(side Side) *Registry {
	next := clientIDMin
	if side == ServerSide {
		next = serverIDMin
	}
	return &Registry{
		side:    side,
		objects: make(map[uint32]entry),
		nextID:  next,
	}
}

// Add binds an object id chosen by the peer (or by protocol convention,
// like the display object at id 1).
func (r *Registry) Add(id uint32, iface schema.Interface, h Handler) error {
	if _, ok := r.objects[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	r.objects[id] = entry{iface: iface, handler: h}
	return nil
}

// New allocates the next free id in this side's range and binds it.
func (r *Registry) New(iface schema.Interface, h Handler) (uint32, error) {
	limit := clientIDMax
	if r.side == ServerSide {
		limit = ^uint32(0)
	}
	for r.nextID <= limit {
		id := r.nextID
		r.nextID++
		if _, ok := r.objects[id]; ok {
			continue
		}
		r.objects[id] = entry{iface: iface, handler: h}
		return id, nil
	}
	return 0, ErrIDSpaceExhausted
}

// Delete releases an id. Deleting an id that is not live is a no-op; id
// destruction notifications can race with in-flight messages.
func (r *Registry) Delete(id uint32) {
	delete(r.objects, id)
}

// Lookup returns the interface and handler bound to an id.
func (r *Registry) Lookup(id uint32) (schema.Interface, Handler, bool) {
	e, ok := r.objects[id]
	return e.iface, e.handler, ok
}

// Len reports how many objects are live.
func (r *Registry) Len() int {
	return len(r.objects)
}

// Dispatch routes one decoded message to its object's handler. The opcode
// is resolved against the side-appropriate operation list (requests on the
// server, events on the client) so an out-of-range opcode is rejected
// before the handler runs; argument decoding is left to the handler, which
// knows the operation's schema.
func (r *Registry) Dispatch(ctx context.Context, msg *wire.Message) error {
	e, ok := r.objects[msg.Object]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownObject, msg.Object)
	}

	if r.side == ServerSide {
		_, ok = e.iface.Request(msg.Opcode)
	} else {
		_, ok = e.iface.Event(msg.Opcode)
	}
	if !ok {
		return fmt.Errorf("%w: %s opcode %d", ErrUnknownOpcode, e.iface.Name, msg.Opcode)
	}

	return e.handler.HandleMessage(ctx, msg)
}
