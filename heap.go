package cowstr

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// heapBuffer is the shared storage behind heap handles. The byte length
// of the content is per-handle (packed in the handle's second word);
// the buffer itself only knows its capacity and how many handles share
// it. The count is atomic so handles may be cloned and released from
// different goroutines.
type heapBuffer struct {
	refs atomic.Int64
	data []byte // len(data) is the allocated capacity
}

// The handle stores the buffer address as a plain uintptr, which the
// garbage collector does not trace. The live registry pins every buffer
// with a positive reference count; removing it on the final release is
// the deterministic free.
const liveShards = 32

type liveSet struct {
	mu sync.Mutex
	m  map[*heapBuffer]struct{}
}

var live [liveShards]liveSet

func liveShard(h *heapBuffer) *liveSet {
	p := uintptr(unsafe.Pointer(h))
	return &live[(p>>4)&(liveShards-1)]
}

func register(h *heapBuffer) {
	sh := liveShard(h)
	sh.mu.Lock()
	if sh.m == nil {
		sh.m = make(map[*heapBuffer]struct{})
	}
	sh.m[h] = struct{}{}
	sh.mu.Unlock()
}

func unregister(h *heapBuffer) {
	sh := liveShard(h)
	sh.mu.Lock()
	delete(sh.m, h)
	sh.mu.Unlock()
}

// isLive reports whether h is still pinned. Test hook.
func (h *heapBuffer) isLive() bool {
	sh := liveShard(h)
	sh.mu.Lock()
	_, ok := sh.m[h]
	sh.mu.Unlock()
	return ok
}

// liveBufferCount reports the number of pinned buffers. Test hook.
func liveBufferCount() int {
	n := 0
	for i := range live {
		live[i].mu.Lock()
		n += len(live[i].m)
		live[i].mu.Unlock()
	}
	return n
}

// newHeapBuffer allocates a registered buffer with a single reference.
func newHeapBuffer(capacity int) (*heapBuffer, error) {
	if capacity > MaxLength {
		return nil, ErrTooLong
	}
	h := &heapBuffer{data: make([]byte, capacity)}
	h.refs.Store(1)
	register(h)
	return h, nil
}

func (h *heapBuffer) retain() { h.refs.Add(1) }

// release drops one share. The final release unregisters the buffer,
// exactly once; over-releasing is a caller bug and panics.
func (h *heapBuffer) release() {
	switch n := h.refs.Add(-1); {
	case n == 0:
		unregister(h)
	case n < 0:
		panic("cowstr: release of an already-freed buffer")
	}
}

func (h *heapBuffer) isUnique() bool { return h.refs.Load() == 1 }

// realloc resizes the storage in place, preserving content and the
// reference count. Only the exclusive owner may call it.
func (h *heapBuffer) realloc(capacity int) error {
	if capacity > MaxLength {
		return ErrTooLong
	}
	next := make([]byte, capacity)
	copy(next, h.data)
	h.data = next
	return nil
}

// amortizedGrowth sizes a growing buffer at 1.5x, never below what the
// pending edit requires and never past the representable maximum: a
// satisfiable edit near MaxLength must not fail on its headroom.
func amortizedGrowth(curLen, additional int) int {
	required := curLen + additional
	amortized := curLen + curLen/2
	if amortized < required {
		return required
	}
	if amortized > MaxLength {
		return MaxLength
	}
	return amortized
}
