package cowstr

import "errors"

var (
	// ErrTooLong is reported when a string would exceed the maximum
	// representable length (2^56-1 bytes on 64-bit targets).
	ErrTooLong = errors.New("string exceeds representable length")

	// ErrInvalidUTF8 is reported when input bytes are not well-formed UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")

	// ErrInvalidUTF16 is reported when a UTF-16 sequence contains an
	// unpaired surrogate.
	ErrInvalidUTF16 = errors.New("invalid utf-16 sequence")

	// ErrBoundary is reported when an edit offset would split a multi-byte
	// UTF-8 sequence. The string is left unchanged.
	ErrBoundary = errors.New("offset is not a utf-8 boundary")

	// ErrOutOfRange is reported when an offset lies outside the current
	// string length.
	ErrOutOfRange = errors.New("offset out of range")
)
