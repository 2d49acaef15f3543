// Package wire implements the binary message codec for waylink's
// object-oriented RPC protocol.
//
// Every message is addressed to an object instance and names an operation
// (opcode) within that object's interface. The receiver reads the fixed
// 8-byte header first to determine the body length, then reads exactly that
// many bytes. The size field is the only framing signal on the stream;
// there is no terminator.
//
// Frame format (all fields in host byte order, see endian.go):
//
//	0         4         6         8
//	┌─────────┬─────────┬─────────┬───────────────────────┐
//	│ object  │ opcode  │  size   │   argument words ...  │
//	│ uint32  │ uint16  │ uint16  │   (size-8) bytes      │
//	└─────────┴─────────┴─────────┴───────────────────────┘
//
// size counts the whole message including the header, must be a multiple
// of 4, and is at least 8. The body is a sequence of uint32 words whose
// typed interpretation is driven externally by the schema for the
// (interface, opcode) pair; this package only frames the words and offers
// a sequential cursor over them.
package wire

import (
	"fmt"
	"io"
)

const (
	// HeaderSize is the fixed byte length of the message header.
	HeaderSize = 8

	// MaxArgWords is the largest argument payload a message can carry:
	// the size field is 16 bits and must stay a multiple of 4, so the
	// biggest representable frame is 0xfffc bytes.
	MaxArgWords = (0xfffc - HeaderSize) / 4
)

// Message is the unit of exchange: an operation to carry out on an object
// with arguments flattened into untyped 32-bit words.
//
// A Message is transient. It is built up argument by argument before a
// Send, or produced whole by ReadMessage and drained through a Cursor;
// it is not meant to be retained or shared across goroutines.
type Message struct {
	// Object is the id of the object instance the message refers to.
	Object uint32
	// Opcode selects the request or event within the object's interface.
	Opcode uint16
	// Args holds the untyped argument words. The schema for the
	// (interface, opcode) pair dictates how they are interpreted.
	Args []uint32
}

// ReadMessage decodes the next message directly off the stream.
//
// Uses io.ReadFull to guarantee exactly N bytes per word, so a short read
// surfaces as io.EOF or io.ErrUnexpectedEOF from the underlying reader and
// is propagated verbatim; this package never buffers or retries. A size
// field that is not a multiple of 4 or below the header minimum fails with
// ErrFraming before any body byte is consumed; the caller should treat the
// connection as desynchronized.
func ReadMessage(r io.Reader) (*Message, error) {
	var buf [4]byte

	// Word 1: the target object id
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	object := word(buf[:])

	// Word 2: size packed in the high half, opcode in the low half
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	p := word(buf[:])
	size := p >> 16
	opcode := uint16(p)

	if size%4 != 0 || size < HeaderSize {
		return nil, fmt.Errorf("%w: size field %d", ErrFraming, size)
	}

	// Body: (size-8)/4 argument words, read one word at a time
	args := make([]uint32, 0, (size-HeaderSize)/4)
	for remaining := size - HeaderSize; remaining > 0; remaining -= 4 {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		args = append(args, word(buf[:]))
	}

	return &Message{
		Object: object,
		Opcode: opcode,
		Args:   args,
	}, nil
}

// Send serializes the message to the stream as a single write, so that a
// caller holding a per-connection write lock gets frame atomicity for free.
//
// The words go out in host byte order, matching the order used when
// variable-length fields were packed into them; both ends of a connection
// must share byte order. A successfully sent message is consumed: the
// caller must not reuse or mutate it afterwards.
func (m *Message) Send(w io.Writer) error {
	if len(m.Args) > MaxArgWords {
		return fmt.Errorf("%w: %d argument words", ErrMessageTooLarge, len(m.Args))
	}
	size := HeaderSize + 4*len(m.Args)

	buf := make([]byte, size)
	putWord(buf[0:4], m.Object)
	putWord(buf[4:8], uint32(size)<<16|uint32(m.Opcode))
	for i, a := range m.Args {
		putWord(buf[HeaderSize+4*i:], a)
	}

	_, err := w.Write(buf)
	return err
}

// Cursor returns a sequential reader over the message's argument words.
// The typed extraction order must follow the schema for the message's
// (interface, opcode) pair; the cursor itself has no knowledge of it.
func (m *Message) Cursor() *Cursor {
	return &Cursor{words: m.Args}
}
