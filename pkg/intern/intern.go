// Package intern deduplicates repeated string content into shared
// cowstr buffers. Every hit after the first is a reference-count bump:
// no bytes are copied and no memory is allocated, which is the intended
// diet for parsers and config stores that see the same keys over and
// over.
package intern

import (
	"strings"
	"sync"

	"github.com/cockroachdb/swiss"

	"github.com/rawbytedev/cowstr"
)

// Table maps content to one pinned cowstr.String per distinct value.
// It is safe for concurrent use.
type Table struct {
	mu sync.Mutex
	m  *swiss.Map[string, cowstr.String]
}

// NewTable returns an empty table sized for about hint distinct values.
func NewTable(hint int) *Table {
	return &Table{m: swiss.New[string, cowstr.String](hint)}
}

// Intern returns a String equal to text. Content short enough to inline
// bypasses the table entirely; longer content is stored once and every
// later call returns a clone of the same buffer.
func (t *Table) Intern(text string) cowstr.String {
	if len(text) <= cowstr.MaxInline {
		return cowstr.From(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.m.Get(text); ok {
		return v.Clone()
	}
	v := cowstr.From(text)
	// The map key must not alias the caller's bytes.
	t.m.Put(strings.Clone(text), v)
	return v.Clone()
}

// Len reports the number of distinct pinned values.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Len()
}

// Reset releases every pinned buffer and empties the table. Strings
// previously handed out stay valid: they hold their own shares.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.All(func(_ string, v cowstr.String) bool {
		v.Release()
		return true
	})
	t.m = swiss.New[string, cowstr.String](0)
}
