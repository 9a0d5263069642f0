package cowstr

import (
	"unicode/utf8"

	"github.com/rawbytedev/cowstr/internal/unsafes"
)

// Every mutating operation funnels through reserve (append-shaped edits)
// or ensureModifiable (in-place edits). Both leave the handle in a state
// where writing through capSlice cannot be observed by any other handle:
// inline storage is private, static storage is never written, and a heap
// buffer is written only while its reference count is exactly one.
// Exclusivity is checked before any sizing decision because forking is
// strictly more expensive than growing.

// reserve guarantees capacity for additional more bytes and makes the
// handle modifiable. Shared or static storage is forked with amortized
// headroom; an exclusive heap buffer grows in place.
func (s *String) reserve(additional int) error {
	n := s.length()
	need := n + additional
	if need < 0 || need > MaxLength {
		return ErrTooLong
	}
	switch s.lastByte() {
	case lastHeap:
		h := s.heap()
		if h.isUnique() {
			if len(h.data) >= need {
				return nil
			}
			return h.realloc(amortizedGrowth(n, additional))
		}
		nh, err := newHeapBuffer(amortizedGrowth(n, additional))
		if err != nil {
			return err
		}
		copy(nh.data, s.view())
		h.release()
		*s = heapString(nh, n)
		return nil
	case lastStatic:
		if need <= MaxInline {
			*s = inlineString(s.view())
			return nil
		}
		nh, err := newHeapBuffer(amortizedGrowth(n, additional))
		if err != nil {
			return err
		}
		copy(nh.data, s.view())
		*s = heapString(nh, n)
		return nil
	default:
		if need <= MaxInline {
			return nil
		}
		nh, err := newHeapBuffer(amortizedGrowth(n, additional))
		if err != nil {
			return err
		}
		copy(nh.data, s.view())
		*s = heapString(nh, n)
		return nil
	}
}

// ensureModifiable forks shared or static storage without growing it,
// sizing the fork exactly.
func (s *String) ensureModifiable() error {
	switch s.lastByte() {
	case lastHeap:
		h := s.heap()
		if h.isUnique() {
			return nil
		}
		next, err := fromBytesUnchecked(s.view())
		if err != nil {
			return err
		}
		h.release()
		*s = next
	case lastStatic:
		next, err := fromBytesUnchecked(s.view())
		if err != nil {
			return err
		}
		*s = next
	}
	return nil
}

// replaceInner swaps the handle for next, releasing the old share.
func (s *String) replaceInner(next String) {
	if s.lastByte() == lastHeap {
		s.heap().release()
	}
	*s = next
}

func (s *String) appendBytes(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n := s.length()
	if err := s.reserve(len(p)); err != nil {
		return err
	}
	copy(s.capSlice()[n:], p)
	s.setLen(n + len(p))
	return nil
}

// Write appends p, which must be well-formed UTF-8 on its own.
// It implements io.Writer.
func (s *String) Write(p []byte) (int, error) {
	if !utf8.Valid(p) {
		return 0, ErrInvalidUTF8
	}
	if err := s.appendBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString appends text. It implements io.StringWriter, so fmt.Fprintf
// can format directly into a String.
func (s *String) WriteString(text string) (int, error) {
	if !utf8.ValidString(text) {
		return 0, ErrInvalidUTF8
	}
	if err := s.appendBytes(unsafes.Bytes(text)); err != nil {
		return 0, err
	}
	return len(text), nil
}

// WriteByte appends a single byte, which must be ASCII: anything higher
// would open a multi-byte sequence and break the UTF-8 invariant.
func (s *String) WriteByte(c byte) error {
	if c >= utf8.RuneSelf {
		return ErrInvalidUTF8
	}
	buf := [1]byte{c}
	return s.appendBytes(buf[:])
}

// WriteRune appends r.
func (s *String) WriteRune(r rune) (int, error) {
	if !utf8.ValidRune(r) {
		return 0, ErrInvalidUTF8
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	if err := s.appendBytes(buf[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// Concat appends other's content following the usual clone-on-write
// rules. Self-concatenation is fine: other is a borrowed copy of the
// handle, so its view survives the receiver's reallocation.
func (s *String) Concat(other String) error {
	return s.appendBytes(other.view())
}

// Insert places text at byte offset i, shifting the tail right.
func (s *String) Insert(i int, text string) error {
	n := s.length()
	if i < 0 || i > n {
		return ErrOutOfRange
	}
	if !s.isBoundary(i) {
		return ErrBoundary
	}
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	if len(text) == 0 {
		return nil
	}
	if err := s.reserve(len(text)); err != nil {
		return err
	}
	buf := s.capSlice()
	copy(buf[i+len(text):n+len(text)], buf[i:n])
	copy(buf[i:], text)
	s.setLen(n + len(text))
	return nil
}

// InsertRune places r at byte offset i.
func (s *String) InsertRune(i int, r rune) error {
	if !utf8.ValidRune(r) {
		return ErrInvalidUTF8
	}
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	return s.Insert(i, unsafes.String(buf[:n]))
}

// Prepend inserts text at the front.
func (s *String) Prepend(text string) error { return s.Insert(0, text) }

// Pop removes and returns the last rune, reporting false on empty.
func (s *String) Pop() (rune, bool) {
	v := s.view()
	if len(v) == 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRune(v)
	newLen := len(v) - size
	if s.lastByte() == lastHeap && !s.heap().isUnique() {
		// Shared: repoint at an exclusive right-sized value instead of
		// shortening a buffer someone else can see.
		next, err := fromBytesUnchecked(v[:newLen])
		if err != nil {
			return 0, false
		}
		s.replaceInner(next)
		return r, true
	}
	s.setLen(newLen)
	return r, true
}

// Remove deletes and returns the rune starting at byte offset i.
func (s *String) Remove(i int) (rune, error) {
	n := s.length()
	if i < 0 || i >= n {
		return 0, ErrOutOfRange
	}
	if !s.isBoundary(i) {
		return 0, ErrBoundary
	}
	if err := s.ensureModifiable(); err != nil {
		return 0, err
	}
	buf := s.capSlice()
	r, size := utf8.DecodeRune(buf[i:n])
	copy(buf[i:], buf[i+size:n])
	s.setLen(n - size)
	return r, nil
}

// Truncate keeps the first n bytes. It fails with ErrOutOfRange past the
// current length and with ErrBoundary inside a multi-byte sequence,
// leaving the string unchanged either way.
func (s *String) Truncate(n int) error {
	cur := s.length()
	if n < 0 || n > cur {
		return ErrOutOfRange
	}
	if n == cur {
		return nil
	}
	if !s.isBoundary(n) {
		return ErrBoundary
	}
	if s.lastByte() == lastHeap && !s.heap().isUnique() {
		next, err := fromBytesUnchecked(s.view()[:n])
		if err != nil {
			return err
		}
		s.replaceInner(next)
		return nil
	}
	s.setLen(n)
	return nil
}

// ReplaceRange substitutes the bytes in [i, j) with text.
func (s *String) ReplaceRange(i, j int, text string) error {
	n := s.length()
	if i < 0 || j < i || j > n {
		return ErrOutOfRange
	}
	if !s.isBoundary(i) || !s.isBoundary(j) {
		return ErrBoundary
	}
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	grow := len(text) - (j - i)
	if grow > 0 {
		if err := s.reserve(grow); err != nil {
			return err
		}
	} else if err := s.ensureModifiable(); err != nil {
		return err
	}
	buf := s.capSlice()
	copy(buf[i+len(text):n+grow], buf[j:n])
	copy(buf[i:], text)
	s.setLen(n + grow)
	return nil
}

// Retain keeps only the runes for which pred returns true, compacting
// in place after a fork if the storage was shared.
func (s *String) Retain(pred func(rune) bool) error {
	if err := s.ensureModifiable(); err != nil {
		return err
	}
	n := s.length()
	buf := s.capSlice()
	dst, src := 0, 0
	for src < n {
		r, size := utf8.DecodeRune(buf[src:n])
		if pred(r) {
			copy(buf[dst:], buf[src:src+size])
			dst += size
		}
		src += size
	}
	s.setLen(dst)
	return nil
}

// UpperASCII folds ASCII letters to upper case in place, forking shared
// storage first. Non-ASCII bytes pass through untouched.
func (s *String) UpperASCII() error { return s.foldASCII('a', 'z', 'A'-'a') }

// LowerASCII folds ASCII letters to lower case in place.
func (s *String) LowerASCII() error { return s.foldASCII('A', 'Z', 'a'-'A') }

func (s *String) foldASCII(lo, hi byte, delta int8) error {
	if err := s.ensureModifiable(); err != nil {
		return err
	}
	buf := s.capSlice()[:s.length()]
	for i, c := range buf {
		if c >= lo && c <= hi {
			buf[i] = byte(int8(c) + delta)
		}
	}
	return nil
}

// Clear empties the string. Exclusive storage keeps its capacity; a
// shared buffer is released instead of being touched.
func (s *String) Clear() {
	if s.lastByte() == lastHeap && !s.heap().isUnique() {
		s.replaceInner(emptyString())
		return
	}
	s.setLen(0)
}

// Grow reserves room for at least n more bytes, so following appends up
// to that size take no further allocation. It panics on failure; see
// TryGrow for the fallible form.
func (s *String) Grow(n int) {
	if err := s.TryGrow(n); err != nil {
		panic(err)
	}
}

// TryGrow is Grow reporting failure instead of panicking, leaving the
// string unchanged.
func (s *String) TryGrow(n int) error {
	if n < 0 {
		return ErrOutOfRange
	}
	return s.reserve(n)
}

// Shrink reduces a heap buffer to max(length, minCapacity), demoting to
// inline storage when the content fits in the handle. A shared buffer is
// not resized; the handle forks down to an exclusive right-sized one.
// Inline and static handles are left untouched.
func (s *String) Shrink(minCapacity int) error {
	if s.lastByte() != lastHeap {
		return nil
	}
	h := s.heap()
	n := s.length()
	newCap := max(n, minCapacity)
	if newCap <= MaxInline {
		next := inlineString(s.view())
		h.release()
		*s = next
		return nil
	}
	if newCap >= len(h.data) {
		return nil
	}
	if h.isUnique() {
		return h.realloc(newCap)
	}
	nh, err := newHeapBuffer(newCap)
	if err != nil {
		return err
	}
	copy(nh.data, s.view())
	h.release()
	*s = heapString(nh, n)
	return nil
}

func (s *String) isBoundary(i int) bool {
	v := s.view()
	return i == 0 || i == len(v) || utf8.RuneStart(v[i])
}
