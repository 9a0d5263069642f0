// Package cowstr provides a compact string value stored in exactly two
// machine words, with cheap reference-counted cloning and clone-on-write
// mutation.
//
// A String holds its content in one of three ways: short content lives
// directly inside the handle (Inline), references to immortal bytes are
// a bare pointer and length (Static), and everything else shares a
// refcounted heap buffer (Heap). Cloning is O(1) for every variant and
// mutating a clone never disturbs the original.
//
// Handles referencing a heap buffer pin it in a package-level registry
// until their share is dropped, so heap-backed values should be released
// with Release when their lifetime ends. Inline and static values own
// nothing and never need releasing; calling Release on them is a no-op.
//
// A String may be cloned and released from different goroutines; the
// reference count is atomic. Mutating one handle from several goroutines
// at once is outside the contract, exactly as for any Go value.
package cowstr

import (
	"bytes"
	"io"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/zeebo/xxh3"

	"github.com/rawbytedev/cowstr/internal/unsafes"
)

// String is a compact clone-on-write string. The zero value is an empty
// string ready to use. Copying a String with = produces an alias that
// does not own a share of the underlying buffer; use Clone for a copy
// that does. The zero-width channel field keeps the type out of ==,
// which would compare representations rather than content.
type String struct {
	_         [0]chan int
	ptr, pack uintptr
}

// New returns an empty String. No allocation happens until content
// outgrows the handle.
func New() String { return emptyString() }

// From copies text into the smallest representation: inline storage up
// to MaxInline bytes, a fresh heap buffer past that. The copy is O(n).
// It panics when text is not well-formed UTF-8 or is too long; TryFrom
// reports those instead.
func From(text string) String {
	s, err := TryFrom(text)
	if err != nil {
		panic(err)
	}
	return s
}

// TryFrom is the fallible form of From.
func TryFrom(text string) (String, error) {
	if !utf8.ValidString(text) {
		return String{}, ErrInvalidUTF8
	}
	return fromBytesUnchecked(unsafes.Bytes(text))
}

// FromBytes copies b, validating it as UTF-8.
func FromBytes(b []byte) (String, error) {
	if !utf8.Valid(b) {
		return String{}, ErrInvalidUTF8
	}
	return fromBytesUnchecked(b)
}

// FromBytesLossy copies b, replacing ill-formed sequences with the
// Unicode replacement character.
func FromBytesLossy(b []byte) String {
	if utf8.Valid(b) {
		s, err := fromBytesUnchecked(b)
		if err != nil {
			panic(err)
		}
		return s
	}
	var s String
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if _, err := s.WriteRune(r); err != nil {
			panic(err)
		}
		b = b[size:]
	}
	return s
}

// FromStatic references text without copying: zero allocation at any
// length. The caller guarantees the bytes live for the whole program and
// are never rewritten, which holds for string literals and package-level
// constants. Content up to MaxInline is stored inline instead, which is
// equally allocation-free. Like From it panics on ill-formed UTF-8:
// an unvalidated final byte could land in the discriminant slot and
// corrupt the handle. TryFromStatic reports instead.
func FromStatic(text string) String {
	s, err := TryFromStatic(text)
	if err != nil {
		panic(err)
	}
	return s
}

// TryFromStatic is the fallible form of FromStatic.
func TryFromStatic(text string) (String, error) {
	if !utf8.ValidString(text) {
		return String{}, ErrInvalidUTF8
	}
	if len(text) <= MaxInline {
		return inlineString(unsafes.Bytes(text)), nil
	}
	if len(text) > MaxLength {
		return String{}, ErrTooLong
	}
	return staticString(text), nil
}

// FromRunes builds a String from runes, with Go's usual conversion
// semantics: invalid runes become the replacement character.
func FromRunes(rs []rune) String {
	var s String
	if err := s.TryGrow(len(rs)); err != nil {
		panic(err)
	}
	for _, r := range rs {
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		if _, err := s.WriteRune(r); err != nil {
			panic(err)
		}
	}
	return s
}

// FromUTF16 decodes a UTF-16 sequence, reporting ErrInvalidUTF16 on an
// unpaired surrogate.
func FromUTF16(u []uint16) (String, error) {
	var s String
	if err := s.TryGrow(len(u)); err != nil {
		return String{}, err
	}
	for i := 0; i < len(u); i++ {
		c := u[i]
		var r rune
		switch {
		case c < 0xD800 || c >= 0xE000:
			r = rune(c)
		case c < 0xDC00 && i+1 < len(u) && u[i+1] >= 0xDC00 && u[i+1] < 0xE000:
			r = utf16.DecodeRune(rune(c), rune(u[i+1]))
			i++
		default:
			s.Release()
			return String{}, ErrInvalidUTF16
		}
		if _, err := s.WriteRune(r); err != nil {
			s.Release()
			return String{}, err
		}
	}
	return s, nil
}

// WithCapacity returns an empty String with room for at least capacity
// bytes. Capacities up to MaxInline stay inline.
func WithCapacity(capacity int) String {
	s, err := TryWithCapacity(capacity)
	if err != nil {
		panic(err)
	}
	return s
}

// TryWithCapacity is the fallible form of WithCapacity.
func TryWithCapacity(capacity int) (String, error) {
	if capacity <= MaxInline {
		return emptyString(), nil
	}
	h, err := newHeapBuffer(capacity)
	if err != nil {
		return String{}, err
	}
	return heapString(h, 0), nil
}

// Clone returns a handle to the same content. For heap-backed values
// this bumps the shared buffer's reference count and copies no bytes.
func (s String) Clone() String {
	if s.lastByte() == lastHeap {
		s.heap().retain()
	}
	return s
}

// Release drops this handle's share of its buffer and resets the handle
// to empty. The buffer is freed exactly when its last share is dropped.
// Releasing an inline or static handle, or the same handle twice, is a
// no-op; releasing more shares than were created panics.
func (s *String) Release() {
	if s.lastByte() == lastHeap {
		s.heap().release()
	}
	*s = emptyString()
}

// Len returns the length in bytes.
func (s String) Len() int { return s.length() }

// RuneLen returns the length in runes.
func (s String) RuneLen() int { return utf8.RuneCount(s.view()) }

// IsEmpty reports whether the String has length zero.
func (s String) IsEmpty() bool { return s.length() == 0 }

// Cap returns the usable capacity in bytes: MaxInline for inline
// handles, the buffer capacity for heap handles, and the current length
// for static references, which cannot grow in place.
func (s String) Cap() int {
	switch s.lastByte() {
	case lastHeap:
		return len(s.heap().data)
	case lastStatic:
		return s.length()
	default:
		return MaxInline
	}
}

// IsInline reports whether the content lives inside the handle.
func (s String) IsInline() bool { return s.lastByte() < lastHeap }

// IsStatic reports whether the handle references caller-owned bytes.
func (s String) IsStatic() bool { return s.lastByte() == lastStatic }

// IsHeap reports whether the handle shares a refcounted buffer.
func (s String) IsHeap() bool { return s.lastByte() == lastHeap }

// SharesBufferWith reports whether both handles reference the same heap
// buffer, regardless of their lengths.
func (s String) SharesBufferWith(other String) bool {
	return s.lastByte() == lastHeap && other.lastByte() == lastHeap && s.ptr == other.ptr
}

// String returns the content as an ordinary Go string. The copy is O(n):
// a Go string cannot alias a buffer that may later be rewritten.
func (s String) String() string { return string(s.view()) }

// Bytes returns a copy of the content.
func (s String) Bytes() []byte { return append([]byte(nil), s.view()...) }

// AppendTo appends the content to dst and returns the extended slice.
func (s String) AppendTo(dst []byte) []byte { return append(dst, s.view()...) }

// Runes returns the content decoded into runes.
func (s String) Runes() []rune { return []rune(unsafes.String(s.view())) }

// At returns the byte at offset i, panicking out of range like a slice
// index.
func (s String) At(i int) byte { return s.view()[i] }

// RuneAt decodes the rune starting at byte offset i and its size. It
// panics when i is out of range; an offset inside a multi-byte sequence
// yields utf8.RuneError, matching utf8.DecodeRune.
func (s String) RuneAt(i int) (rune, int) {
	v := s.view()
	_ = v[i]
	return utf8.DecodeRune(v[i:])
}

// Slice returns the content in [i, j) as a new String. A prefix of a
// heap-backed value shares the buffer without copying; other slices
// copy. Both offsets must land on rune boundaries.
func (s String) Slice(i, j int) (String, error) {
	n := s.length()
	if i < 0 || j < i || j > n {
		return String{}, ErrOutOfRange
	}
	if !s.isBoundary(i) || !s.isBoundary(j) {
		return String{}, ErrBoundary
	}
	switch {
	case j-i <= MaxInline:
		return inlineString(s.view()[i:j]), nil
	case s.lastByte() == lastStatic:
		// A sub-view of immortal bytes is itself static.
		return staticBytes(s.view()[i:j]), nil
	case s.lastByte() == lastHeap && i == 0:
		c := s.Clone()
		c.pack = uintptr(j) | c.pack&^lenMask
		return c, nil
	default:
		return fromBytesUnchecked(s.view()[i:j])
	}
}

// Equal reports whether both Strings hold the same bytes, whatever
// their representations.
func (s String) Equal(other String) bool {
	if s.ptr == other.ptr && s.pack == other.pack {
		return true
	}
	return bytes.Equal(s.view(), other.view())
}

// EqualString compares against an ordinary string without copying.
func (s String) EqualString(text string) bool {
	return unsafes.String(s.view()) == text
}

// Compare orders by content bytes like bytes.Compare.
func (s String) Compare(other String) int {
	return bytes.Compare(s.view(), other.view())
}

// Less reports whether s orders before other.
func (s String) Less(other String) bool { return s.Compare(other) < 0 }

// Hash returns a 64-bit content hash. Equal content hashes equally
// across representations.
func (s String) Hash() uint64 { return xxh3.Hash(s.view()) }

// WriteTo writes the content to w. It implements io.WriterTo.
func (s String) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.view())
	return int64(n), err
}

// MarshalText implements encoding.TextMarshaler.
func (s String) MarshalText() ([]byte, error) { return s.Bytes(), nil }

// UnmarshalText implements encoding.TextUnmarshaler, releasing any
// previous content.
func (s *String) UnmarshalText(text []byte) error {
	next, err := FromBytes(text)
	if err != nil {
		return err
	}
	s.replaceInner(next)
	return nil
}

// refCount reports the shared buffer's reference count, or 1 for
// representations that are always exclusive. Test hook.
func (s String) refCount() int64 {
	if s.lastByte() == lastHeap {
		return s.heap().refs.Load()
	}
	return 1
}
