//go:build 386 || amd64 || arm || arm64 || loong64 || mips64le || mipsle || ppc64le || riscv64 || wasm

package cowstr

import (
	"encoding/binary"
	"unsafe"
)

// String is stored in exactly two machine words. The last byte of the
// second word discriminates the representation:
//
//   - Inline: content bytes live directly in the handle. Lengths below
//     MaxInline are tagged lastInline+n; a full inline value keeps its
//     final content byte there instead, which in well-formed UTF-8 is
//     always below lastInline and decodes through the clamp in length().
//   - Static: first word points at caller-owned immortal bytes, low bytes
//     of the second word hold the length.
//   - Heap: first word points at a shared refcounted buffer, low bytes of
//     the second word hold this handle's length.
//
// lastNone is produced by no constructor; Option reuses it for "no value".
// The build tag pins little-endian targets: the tag must be the top byte
// of the packed word and the last byte of the struct at once.
const (
	wordSize = unsafe.Sizeof(uintptr(0))
	repSize  = 2 * wordSize
	tagShift = 8*wordSize - 8
	lenMask  = uintptr(1)<<tagShift - 1

	// MaxInline is the longest content stored directly inside a handle:
	// 16 bytes on 64-bit targets, 8 on 32-bit.
	MaxInline = int(repSize)

	// MaxLength is the longest representable string: the packed length
	// spans one word minus the tag byte.
	MaxLength = int(lenMask)
)

const (
	lastInline byte = 0xC0 // inline length n is tagged lastInline+n
	lastHeap   byte = 0xFC
	lastStatic byte = 0xFE
	lastNone   byte = 0xFF // reserved: the Option niche, never constructed
)

// nulPad backs the one content that would collide with the all-zero
// handle: MaxInline NUL bytes. See inlineCollision.
var nulPad [MaxInline]byte

var _ [repSize]byte = [unsafe.Sizeof(String{})]byte{}

func (s *String) lastByte() byte { return byte(s.pack >> tagShift) }

// length decodes the byte length from the handle alone.
func (s *String) length() int {
	if s.ptr == 0 && s.pack == 0 {
		// The zero value reads as empty. Constructors never produce the
		// all-zero pattern (inlineCollision reroutes it).
		return 0
	}
	last := s.lastByte()
	if last >= lastHeap {
		return int(s.pack & lenMask)
	}
	n := uint(last) - uint(lastInline)
	if n > uint(MaxInline) {
		// Wrapped: the last byte is content, so the value is full.
		n = uint(MaxInline)
	}
	return int(n)
}

// handleBytes exposes the handle's own storage for the inline variant.
func (s *String) handleBytes() *[repSize]byte {
	return (*[repSize]byte)(unsafe.Pointer(&s.ptr))
}

func (s *String) heap() *heapBuffer {
	// The live registry keeps the target reachable while any handle
	// holds a positive share, so the uintptr round-trip is sound.
	return (*heapBuffer)(unsafe.Pointer(s.ptr))
}

// view returns the content bytes without copying. The slice aliases the
// handle or its buffer and is invalidated by any mutation.
func (s *String) view() []byte {
	n := s.length()
	switch s.lastByte() {
	case lastHeap:
		return s.heap().data[:n]
	case lastStatic:
		return unsafe.Slice((*byte)(unsafe.Pointer(s.ptr)), n)
	default:
		return s.handleBytes()[:n]
	}
}

// capSlice returns the full writable storage. The caller must have made
// the handle modifiable first: not static, and exclusive if heap.
func (s *String) capSlice() []byte {
	if s.lastByte() == lastHeap {
		return s.heap().data
	}
	return s.handleBytes()[:]
}

// setLen records a new length. For heap handles the caller must hold the
// buffer exclusively. Shrinking never touches content bytes.
func (s *String) setLen(n int) {
	switch s.lastByte() {
	case lastHeap, lastStatic:
		s.pack = uintptr(n) | s.pack&^lenMask
	default:
		if n < MaxInline {
			s.handleBytes()[repSize-1] = lastInline + byte(n)
			return
		}
		// Full inline: the tag slot holds the final content byte already.
		s.inlineCollision()
	}
}

// inlineCollision reroutes the single content whose inline encoding is
// indistinguishable from the zero value: MaxInline NUL bytes. It becomes
// a static reference into nulPad, which still allocates nothing.
func (s *String) inlineCollision() {
	if s.ptr == 0 && s.pack == 0 {
		*s = staticBytes(nulPad[:])
	}
}

func emptyString() String {
	return String{pack: uintptr(lastInline) << tagShift}
}

// leWord loads one little-endian machine word from b.
func leWord(b []byte) uintptr {
	if wordSize == 8 {
		return uintptr(binary.LittleEndian.Uint64(b))
	}
	return uintptr(binary.LittleEndian.Uint32(b))
}

// inlineString packs content into the handle itself. content must be
// well-formed UTF-8 no longer than MaxInline: a full value's final byte
// doubles as the tag slot, which only holds up because UTF-8 never ends
// a sequence at or above lastInline. The handle is assembled from a
// stack scratch so inline construction never touches the heap.
func inlineString(content []byte) String {
	var buf [repSize]byte
	n := copy(buf[:], content)
	if n < MaxInline {
		buf[repSize-1] = lastInline + byte(n)
	}
	s := String{ptr: leWord(buf[:wordSize]), pack: leWord(buf[wordSize:])}
	if s.ptr == 0 && s.pack == 0 {
		// MaxInline NUL bytes collide with the reserved zero pattern.
		return staticBytes(nulPad[:])
	}
	return s
}

// staticBytes builds a handle referencing b without copying. The caller
// guarantees b is immortal and never written again.
func staticBytes(b []byte) String {
	return String{
		ptr:  uintptr(unsafe.Pointer(unsafe.SliceData(b))),
		pack: uintptr(len(b)) | uintptr(lastStatic)<<tagShift,
	}
}

func staticString(text string) String {
	return String{
		ptr:  uintptr(unsafe.Pointer(unsafe.StringData(text))),
		pack: uintptr(len(text)) | uintptr(lastStatic)<<tagShift,
	}
}

func heapString(h *heapBuffer, n int) String {
	return String{
		ptr:  uintptr(unsafe.Pointer(h)),
		pack: uintptr(n) | uintptr(lastHeap)<<tagShift,
	}
}

// fromBytesUnchecked builds the smallest representation of content,
// assuming it is already well-formed UTF-8. Heap buffers are sized
// exactly; callers that are about to append reserve on top.
func fromBytesUnchecked(content []byte) (String, error) {
	if len(content) <= MaxInline {
		return inlineString(content), nil
	}
	h, err := newHeapBuffer(len(content))
	if err != nil {
		return String{}, err
	}
	copy(h.data, content)
	return heapString(h, len(content)), nil
}
