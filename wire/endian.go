package wire

import (
	"encoding/binary"
	"unsafe"
)

// The protocol is defined in the connection's host byte order: argument
// words and the bytes packed into them (strings, arrays) share the same
// in-memory layout, so the framer can treat the word stream and the byte
// stream as the same data. hostOrder is resolved once at startup; this
// file is the only place in the module allowed to reinterpret memory, so
// byte-order and alignment assumptions stay reviewable in isolation.
var hostOrder = func() binary.ByteOrder {
	var x uint16 = 1
	if *(*byte)(unsafe.Pointer(&x)) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}()

// word unpacks one argument word from a 4-byte slice.
func word(b []byte) uint32 {
	return hostOrder.Uint32(b)
}

// putWord packs one argument word into a 4-byte slice.
func putWord(b []byte, w uint32) {
	hostOrder.PutUint32(b, w)
}
