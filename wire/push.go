package wire

// The push methods are the write-side mirror of the Cursor: they append
// typed values to the argument words using the same encoding the read side
// expects, so a send → read → extract round trip reproduces the original
// values.

// PushUint32 appends an unsigned integer argument.
func (m *Message) PushUint32(v uint32) {
	m.Args = append(m.Args, v)
}

// PushInt32 appends a signed integer argument.
func (m *Message) PushInt32(v int32) {
	m.Args = append(m.Args, uint32(v))
}

// PushFixed appends a fixed-point argument.
func (m *Message) PushFixed(f Fixed) {
	m.Args = append(m.Args, uint32(int32(f)))
}

// PushString appends a string argument: a length word counting a null
// terminator, then the content packed 4 bytes per word. The final word is
// null-padded and always carries the terminator, so a word-aligned string
// gets a whole extra word for it.
func (m *Message) PushString(s string) {
	b := []byte(s)
	m.Args = append(m.Args, uint32(len(b))+1)
	i := 0
	for ; i+4 <= len(b); i += 4 {
		m.Args = append(m.Args, word(b[i:]))
	}
	// Tail word: 0-3 content bytes, then the terminator, then zero padding.
	var tail [4]byte
	copy(tail[:], b[i:])
	m.Args = append(m.Args, word(tail[:]))
}

// PushBytes appends a byte-array argument: a length word holding the pure
// byte count, then the content packed like PushString but with no
// terminator: an aligned array adds no extra word, and embedded nulls
// survive the round trip through NextArray.
func (m *Message) PushBytes(b []byte) {
	m.Args = append(m.Args, uint32(len(b)))
	i := 0
	for ; i+4 <= len(b); i += 4 {
		m.Args = append(m.Args, word(b[i:]))
	}
	if i < len(b) {
		var tail [4]byte
		copy(tail[:], b[i:])
		m.Args = append(m.Args, word(tail[:]))
	}
}

// PushNewID appends a generic new_id argument: interface name, version, id.
func (m *Message) PushNewID(n NewID) {
	m.PushString(n.Interface)
	m.PushUint32(n.Version)
	m.PushUint32(n.ID)
}
