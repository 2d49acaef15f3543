// Package schema describes protocol interfaces: the named operations an
// object understands and the typed argument list each one carries.
//
// The wire codec only moves untyped words; an Op's signature is what
// dictates the sequence of cursor calls that turns those words back into
// values. Signatures use one character per argument:
//
//	i  int32          u  uint32         f  fixed-point
//	s  string         a  byte array     o  object id
//	n  new_id, interface known to both sides (a bare id)
//	N  new_id, generic (interface name + version + id)
//	h  file descriptor (ancillary data; not decodable from a buffer)
package schema

import (
	"errors"
	"fmt"

	"waylink/wire"
)

// ErrUnsupportedFD reports an operation whose signature carries a file
// descriptor. Descriptors travel out-of-band on the socket; a schema-driven
// decode over buffered words cannot produce one.
var ErrUnsupportedFD = errors.New("schema: file descriptor arguments require an ancillary-data transport")

// Op is one operation (request or event) within an interface.
type Op struct {
	Name      string
	Signature string
}

// Interface is the contract an object implements: a name, a version, and
// the operations available in each direction. Requests travel client →
// server, events server → client; opcodes index into the respective list.
type Interface struct {
	Name     string
	Version  uint32
	Requests []Op
	Events   []Op
}

// Request resolves a request opcode to its operation.
func (i Interface) Request(opcode uint16) (Op, bool) {
	if int(opcode) >= len(i.Requests) {
		return Op{}, false
	}
	return i.Requests[opcode], true
}

// Event resolves an event opcode to its operation.
func (i Interface) Event(opcode uint16) (Op, bool) {
	if int(opcode) >= len(i.Events) {
		return Op{}, false
	}
	return i.Events[opcode], true
}

// Decode walks the operation's signature and pulls one typed value off the
// cursor per argument. The returned values are, in signature order:
// int32, uint32 (also for o and n), wire.Fixed, string, []byte, or
// wire.NewID for N.
//
// A cursor that runs out early fails with a *wire.MissingArgError naming
// the operation and argument; an h argument fails with ErrUnsupportedFD
// before touching the cursor.
func (op Op) Decode(c *wire.Cursor) ([]any, error) {
	vals := make([]any, 0, len(op.Signature))
	for i := 0; i < len(op.Signature); i++ {
		switch op.Signature[i] {
		case 'i':
			v, ok := c.NextInt32()
			if !ok {
				return nil, op.missing(i)
			}
			vals = append(vals, v)
		case 'u', 'o', 'n':
			v, ok := c.NextUint32()
			if !ok {
				return nil, op.missing(i)
			}
			vals = append(vals, v)
		case 'f':
			v, ok := c.NextFixed()
			if !ok {
				return nil, op.missing(i)
			}
			vals = append(vals, v)
		case 's':
			v, ok := c.NextString()
			if !ok {
				return nil, op.missing(i)
			}
			vals = append(vals, string(v))
		case 'a':
			v, ok := c.NextArray()
			if !ok {
				return nil, op.missing(i)
			}
			vals = append(vals, v)
		case 'N':
			v, err := c.NextNewID()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op.Name, err)
			}
			vals = append(vals, v)
		case 'h':
			return nil, fmt.Errorf("%s: %w", op.Name, ErrUnsupportedFD)
		default:
			return nil, fmt.Errorf("schema: %s has malformed signature character %q", op.Name, op.Signature[i])
		}
	}
	return vals, nil
}

// Encode mirrors Decode: it type-checks one value per signature character
// and pushes it onto the message's arguments.
func (op Op) Encode(m *wire.Message, vals ...any) error {
	if len(vals) != len(op.Signature) {
		return fmt.Errorf("schema: %s takes %d arguments, got %d", op.Name, len(op.Signature), len(vals))
	}
	for i := 0; i < len(op.Signature); i++ {
		switch ch := op.Signature[i]; ch {
		case 'i':
			v, ok := vals[i].(int32)
			if !ok {
				return op.badType(i, "int32", vals[i])
			}
			m.PushInt32(v)
		case 'u', 'o', 'n':
			v, ok := vals[i].(uint32)
			if !ok {
				return op.badType(i, "uint32", vals[i])
			}
			m.PushUint32(v)
		case 'f':
			v, ok := vals[i].(wire.Fixed)
			if !ok {
				return op.badType(i, "wire.Fixed", vals[i])
			}
			m.PushFixed(v)
		case 's':
			v, ok := vals[i].(string)
			if !ok {
				return op.badType(i, "string", vals[i])
			}
			m.PushString(v)
		case 'a':
			v, ok := vals[i].([]byte)
			if !ok {
				return op.badType(i, "[]byte", vals[i])
			}
			m.PushBytes(v)
		case 'N':
			v, ok := vals[i].(wire.NewID)
			if !ok {
				return op.badType(i, "wire.NewID", vals[i])
			}
			m.PushNewID(v)
		case 'h':
			return fmt.Errorf("%s: %w", op.Name, ErrUnsupportedFD)
		default:
			return fmt.Errorf("schema: %s has malformed signature character %q", op.Name, ch)
		}
	}
	return nil
}

func (op Op) missing(i int) error {
	return &wire.MissingArgError{
		Field: fmt.Sprintf("%s argument %d (%c)", op.Name, i, op.Signature[i]),
	}
}

func (op Op) badType(i int, want string, got any) error {
	return fmt.Errorf("schema: %s argument %d (%c) wants %s, got %T", op.Name, i, op.Signature[i], want, got)
}
