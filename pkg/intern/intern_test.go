package intern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "session token that is far too long to inline"

func TestInternDeduplicates(t *testing.T) {
	tab := NewTable(4)
	a := tab.Intern(key)
	b := tab.Intern(key)

	require.True(t, a.IsHeap())
	assert.True(t, a.SharesBufferWith(b), "repeated content must share one buffer")
	assert.Equal(t, key, b.String())
	assert.Equal(t, 1, tab.Len())

	c := tab.Intern("a different value that also exceeds the handle")
	assert.False(t, a.SharesBufferWith(c))
	assert.Equal(t, 2, tab.Len())

	a.Release()
	b.Release()
	c.Release()
	tab.Reset()
}

func TestInternShortContentBypassesTable(t *testing.T) {
	tab := NewTable(0)
	s := tab.Intern("short")
	assert.True(t, s.IsInline())
	assert.Equal(t, 0, tab.Len())
}

func TestResetKeepsHandedOutStringsValid(t *testing.T) {
	tab := NewTable(1)
	s := tab.Intern(key)
	tab.Reset()
	assert.Equal(t, 0, tab.Len())
	assert.Equal(t, key, s.String(), "outstanding shares survive a reset")
	s.Release()

	// A fresh intern after reset pins a new buffer.
	n := tab.Intern(key)
	assert.Equal(t, key, n.String())
	assert.Equal(t, 1, tab.Len())
	n.Release()
	tab.Reset()
}

func TestInternKeyDoesNotAliasCallerBytes(t *testing.T) {
	tab := NewTable(1)
	buf := []byte(key)
	s := tab.Intern(string(buf))
	buf[0] = 'X'
	again := tab.Intern(key)
	assert.True(t, s.SharesBufferWith(again))
	s.Release()
	again.Release()
	tab.Reset()
}

func TestInternConcurrent(t *testing.T) {
	tab := NewTable(16)
	keys := make([]string, 8)
	for i := range keys {
		keys[i] = fmt.Sprintf("concurrent interning workload key number %02d", i)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s := tab.Intern(keys[i%len(keys)])
				if s.String() != keys[i%len(keys)] {
					t.Error("interned value mismatch")
					s.Release()
					return
				}
				s.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(keys), tab.Len())
	tab.Reset()
}
