// Package unsafes aliases byte slices and strings without copying.
// Callers own the lifetime reasoning: the result shares memory with the
// input and goes stale the moment the input does.
package unsafes

import "unsafe"

// String aliases b as a string without copying. The string is only
// valid while b is neither modified nor collected.
func String(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Bytes aliases s as a byte slice without copying. Writing through the
// result is undefined behavior: Go strings are immutable.
func Bytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
