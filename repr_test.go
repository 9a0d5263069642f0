package cowstr

import (
	"strings"
	"testing"
	"testing/quick"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmpty(t *testing.T) {
	s := New()
	require.True(t, s.IsEmpty())
	require.Equal(t, 0, s.Len())
	require.Equal(t, "", s.String())
	require.False(t, s.IsHeap())
	require.Equal(t, MaxInline, s.Cap())
}

func TestZeroValueIsEmpty(t *testing.T) {
	var s String
	require.True(t, s.IsEmpty())
	require.Equal(t, "", s.String())
	require.Equal(t, 0, s.Len())

	// The zero value is usable directly.
	_, err := s.WriteString("zero")
	require.NoError(t, err)
	require.Equal(t, "zero", s.String())
}

func TestFromAroundInlineLimit(t *testing.T) {
	src := strings.Repeat("0123456789abcdefg", 4)

	inline := From(src[:MaxInline-1])
	assert.Equal(t, src[:MaxInline-1], inline.String())
	assert.False(t, inline.IsHeap())
	assert.Equal(t, MaxInline, inline.Cap())

	full := From(src[:MaxInline])
	assert.Equal(t, src[:MaxInline], full.String())
	assert.False(t, full.IsHeap())
	assert.Equal(t, MaxInline, full.Cap())

	heap := From(src[:MaxInline+1])
	assert.Equal(t, src[:MaxInline+1], heap.String())
	assert.True(t, heap.IsHeap())
	assert.Equal(t, MaxInline+1, heap.Cap())
	heap.Release()
}

func TestFromStaticAroundInlineLimit(t *testing.T) {
	const src = "0123456789abcdefg0123456789abcdefg"

	inline := FromStatic(src[:MaxInline])
	assert.Equal(t, src[:MaxInline], inline.String())
	assert.True(t, inline.IsInline())

	static := FromStatic(src[:MaxInline+1])
	assert.Equal(t, src[:MaxInline+1], static.String())
	assert.True(t, static.IsStatic())
	assert.False(t, static.IsHeap())
	assert.Equal(t, MaxInline+1, static.Cap())
}

func TestFromStaticRejectsInvalidUTF8(t *testing.T) {
	// A full inline value's final byte lands in the discriminant slot,
	// so an unvalidated high byte could forge the heap, static or
	// reserved markers and make the handle decode garbage.
	forgedNone := strings.Repeat("x", MaxInline-1) + "\xff"
	forgedHeap := strings.Repeat("x", MaxInline-1) + "\xfc"
	assert.Panics(t, func() { FromStatic(forgedNone) })
	assert.Panics(t, func() { FromStatic(forgedHeap) })

	_, err := TryFromStatic(forgedNone)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	_, err = TryFromStatic("a long static candidate with a bad byte \xc3\x28 inside")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestInlineConstructionDoesNotAllocate(t *testing.T) {
	contents := []string{"", "a", "short", strings.Repeat("x", MaxInline)}
	for _, c := range contents {
		c := c
		allocs := testing.AllocsPerRun(200, func() {
			s := From(c)
			if s.Len() != len(c) {
				t.Fatal("length mismatch")
			}
		})
		assert.Zerof(t, allocs, "From(%q) should not allocate", c)
	}
}

func TestStaticConstructionDoesNotAllocate(t *testing.T) {
	long := strings.Repeat("static data lives forever ", 512)
	allocs := testing.AllocsPerRun(200, func() {
		s := FromStatic(long)
		if s.Len() != len(long) {
			t.Fatal("length mismatch")
		}
	})
	assert.Zero(t, allocs)
}

func TestNulContentRoundTrips(t *testing.T) {
	// Every all-NUL content decodes exactly, including the one whose
	// inline bytes would be indistinguishable from the zero value.
	for n := 0; n <= MaxInline+2; n++ {
		content := strings.Repeat("\x00", n)
		s := From(content)
		assert.Equalf(t, content, s.String(), "length %d", n)
		assert.Equalf(t, n, s.Len(), "length %d", n)
		s.Release()
	}

	full := From(strings.Repeat("\x00", MaxInline))
	assert.False(t, full.IsHeap(), "the collision reroute must not allocate")
	assert.Equal(t, MaxInline, full.Len())
}

func TestRoundTripProperty(t *testing.T) {
	check := func(text string) bool {
		s, err := TryFrom(text)
		if err != nil {
			// Only invalid UTF-8 may be rejected.
			return !utf8.ValidString(text)
		}
		defer s.Release()
		if s.String() != text || s.Len() != len(text) {
			return false
		}
		// Representation matches the inline cutoff; the NUL collision
		// falls back to a static reference, never to the heap.
		if len(text) <= MaxInline {
			return !s.IsHeap()
		}
		return s.IsHeap()
	}
	require.NoError(t, quick.Check(check, nil))
}

func TestReservedPatternUnreachable(t *testing.T) {
	// No constructed value may carry the discriminant reserved for the
	// Option niche.
	observe := func(s String) {
		assert.NotEqual(t, lastNone, s.lastByte())
	}
	check := func(text string, extra string) bool {
		if st, err := TryFromStatic(text); err == nil {
			observe(st)
		}
		s, err := TryFrom(text)
		if err != nil {
			return true
		}
		observe(s)
		c := s.Clone()
		observe(c)
		if _, err := s.WriteString(extra); err == nil {
			observe(s)
		}
		s.Pop()
		observe(s)
		s.Clear()
		observe(s)
		c.Release()
		s.Release()
		observe(s)
		return !t.Failed()
	}
	require.NoError(t, quick.Check(check, nil))

	observe(New())
	observe(FromStatic("a static string longer than the inline span"))
	var zero String
	observe(zero)
}

func TestLastByteMarkersAboveContent(t *testing.T) {
	// Discriminant markers must sit above every byte well-formed UTF-8
	// can place at the end of a full inline value (at most 0xBF for a
	// continuation byte) and above every inline tag.
	require.Greater(t, lastHeap, lastInline+byte(MaxInline))
	require.Greater(t, lastHeap, byte(0xBF))
	require.Greater(t, lastStatic, lastHeap)
	require.Greater(t, lastNone, lastStatic)
}
