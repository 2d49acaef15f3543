package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming reports a malformed size field: not a multiple of 4, or
	// below the 8-byte header minimum. The size field is the only framing
	// signal, so after this error the stream position is unrecoverable and
	// the caller should drop the connection.
	ErrFraming = errors.New("wire: malformed message size")

	// ErrMessageTooLarge reports an argument payload that cannot be
	// represented in the 16-bit size field.
	ErrMessageTooLarge = errors.New("wire: message exceeds size field")
)

// MissingArgError reports a cursor that ran out of words before an
// expected field. The message was shorter than the schema required;
// the caller may recover by discarding the message.
type MissingArgError struct {
	// Field describes the argument that was expected, e.g. "new_id version".
	Field string
}

func (e *MissingArgError) Error() string {
	return fmt.Sprintf("wire: expected argument %q but the cursor is exhausted", e.Field)
}

// EncodingError reports a string argument that is not valid UTF-8.
type EncodingError struct {
	// Field describes which argument failed to decode.
	Field string
	// Bytes is the offending byte sequence.
	Bytes []byte
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("wire: %s is not valid UTF-8: %q", e.Field, e.Bytes)
}
