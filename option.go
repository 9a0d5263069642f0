package cowstr

import "unsafe"

// Option is a String that may be absent, at no storage cost: the "no
// value" state reuses the one discriminant byte no String constructor
// ever produces, so an Option is exactly the size of a String.
type Option struct {
	val String
}

var _ [unsafe.Sizeof(String{})]byte = [unsafe.Sizeof(Option{})]byte{}

// Some wraps a present value. Ownership of s's buffer share moves into
// the Option.
func Some(s String) Option { return Option{val: s} }

// None returns the absent Option.
func None() Option {
	return Option{val: String{pack: uintptr(lastNone) << tagShift}}
}

// IsSome reports whether a value is present.
func (o Option) IsSome() bool { return !o.IsNone() }

// IsNone reports whether the Option is absent.
func (o Option) IsNone() bool { return o.val.lastByte() == lastNone }

// Get returns the contained value. The boolean is false for None, in
// which case the String is empty.
func (o Option) Get() (String, bool) {
	if o.IsNone() {
		return String{}, false
	}
	return o.val, true
}

// MustGet returns the contained value, panicking on None.
func (o Option) MustGet() String {
	s, ok := o.Get()
	if !ok {
		panic("cowstr: MustGet on a None option")
	}
	return s
}

// GetOr returns the contained value, or fallback for None.
func (o Option) GetOr(fallback String) String {
	if s, ok := o.Get(); ok {
		return s
	}
	return fallback
}

// Take moves the value out, leaving the Option absent.
func (o *Option) Take() (String, bool) {
	s, ok := o.Get()
	*o = None()
	return s, ok
}

// Release drops the contained value's buffer share, if any, and leaves
// the Option absent.
func (o *Option) Release() {
	if o.IsSome() {
		o.val.Release()
	}
	*o = None()
}
