package wire

import (
	"bytes"
	"unicode/utf8"
)

// Cursor is a sequential, forward-only reader over a message's argument
// words. Each extraction consumes words from the front; there is no random
// access and no peeking. Extraction order is dictated externally by the
// schema for the message's (interface, opcode) pair.
//
// Variable-length results (strings, arrays, new_id interface names) are
// copied out of the word stream eagerly, so they stay valid after the
// Message is discarded.
type Cursor struct {
	words []uint32
}

// Remaining reports how many argument words are left unread.
func (c *Cursor) Remaining() int {
	return len(c.words)
}

// NextUint32 interprets the next argument as an unsigned integer.
// Returns false when the cursor is exhausted.
func (c *Cursor) NextUint32() (uint32, bool) {
	if len(c.words) == 0 {
		return 0, false
	}
	w := c.words[0]
	c.words = c.words[1:]
	return w, true
}

// NextInt32 interprets the next argument as a signed integer.
func (c *Cursor) NextInt32() (int32, bool) {
	w, ok := c.NextUint32()
	return int32(w), ok
}

// NextFixed interprets the next argument as a fixed-point number.
func (c *Cursor) NextFixed() (Fixed, bool) {
	i, ok := c.NextInt32()
	return Fixed(i), ok
}

// NextString interprets the next arguments as a length-prefixed string.
//
// The length word counts a trailing null terminator placed by the
// producer; the content occupies ceil4(length) null-padded bytes. The
// returned bytes run up to the first null within that range, so a content
// byte that happens to be null truncates the result early. That trusts
// the terminator over the declared length and is the accepted policy for
// strings; use NextArray for data that may contain nulls.
//
// Returns false if the cursor is exhausted or the declared length would
// run past the remaining words; in the latter case only the length word
// has been consumed.
func (c *Cursor) NextString() ([]byte, bool) {
	length, ok := c.NextUint32()
	if !ok {
		return nil, false
	}
	// Round up to the next word boundary.
	padded := (int(length) + 3) &^ 3
	if padded/4 > len(c.words) {
		return nil, false
	}
	buf := make([]byte, padded)
	for i := 0; i < padded/4; i++ {
		putWord(buf[4*i:], c.words[i])
	}
	c.words = c.words[padded/4:]
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return buf[:i], true
	}
	return buf, true
}

// NextArray interprets the next arguments as a length-prefixed byte array.
//
// Same length and padding rules as NextString, but the full declared
// length is returned verbatim; embedded nulls are data, not terminators.
func (c *Cursor) NextArray() ([]byte, bool) {
	length, ok := c.NextUint32()
	if !ok {
		return nil, false
	}
	n := int(length)
	padded := (n + 3) &^ 3
	if padded/4 > len(c.words) {
		return nil, false
	}
	buf := make([]byte, padded)
	for i := 0; i < padded/4; i++ {
		putWord(buf[4*i:], c.words[i])
	}
	c.words = c.words[padded/4:]
	return buf[:n], true
}

// NewID is a dynamically-typed object-creation argument, used when the
// schema does not statically know the interface of the object being
// created. The receiver resolves the interface by name and binds the id
// at the given version.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// NextNewID interprets the next arguments as a generic new_id:
// interface name (UTF-8 string), version, then the assigned id.
//
// A missing field fails with a *MissingArgError naming the field. An
// interface name that is not valid UTF-8 fails with an *EncodingError;
// the string's words have still been consumed, so the cursor position
// remains structurally consistent for the caller.
func (c *Cursor) NextNewID() (NewID, error) {
	raw, ok := c.NextString()
	if !ok {
		return NewID{}, &MissingArgError{Field: "new_id interface"}
	}
	if !utf8.Valid(raw) {
		return NewID{}, &EncodingError{Field: "interface name for a generic new_id", Bytes: raw}
	}
	version, ok := c.NextUint32()
	if !ok {
		return NewID{}, &MissingArgError{Field: "new_id version"}
	}
	id, ok := c.NextUint32()
	if !ok {
		return NewID{}, &MissingArgError{Field: "new_id id"}
	}
	return NewID{
		Interface: string(raw),
		Version:   version,
		ID:        id,
	}, nil
}

// NextFD would collect a file descriptor for the next argument.
//
// File descriptors occupy zero words in-band; they travel as ancillary
// data on the transport socket, which a buffer-only cursor cannot see.
// This is a capability the codec does not provide, so the call fails
// fast instead of silently returning nothing. Descriptor-bearing
// messages must be routed through a transport that captures ancillary
// data alongside the message bytes.
func (c *Cursor) NextFD() int {
	panic("wire: file descriptors ride on ancillary socket data; a buffer-only cursor cannot produce one")
}
