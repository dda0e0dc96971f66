package types

import "strings"

// NativeFunc is the signature of a host-provided function. It receives the
// call arguments in source order and returns a single value.
type NativeFunc func(args []Value) Value

// Native is a host function registered with the VM.
type Native struct {
	name  string
	arity int
	fn    NativeFunc
}

// NewNative creates a host function. An arity of 0 accepts any number of
// arguments.
func NewNative(name string, arity int, fn NativeFunc) *Native {
	return &Native{name: name, arity: arity, fn: fn}
}

// Name returns the name the native is registered under.
func (n *Native) Name() string { return n.name }

// Arity returns the declared argument count (0 = variadic).
func (n *Native) Arity() int { return n.arity }

// Variadic reports whether the native skips the arity check.
func (n *Native) Variadic() bool { return n.arity == 0 }

// Call invokes the host function.
func (n *Native) Call(args []Value) Value {
	return n.fn(args)
}

var _ Callable = (*Native)(nil)

// Array is a fixed-length sequence of values. Arrays are shared by pointer:
// every copy of an array Value refers to the same elements.
type Array struct {
	elems []Value
}

// NewArray creates an array owning elems.
func NewArray(elems []Value) *Array {
	return &Array{elems: elems}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

// Get returns element i, or false when i is out of bounds.
func (a *Array) Get(i int) (Value, bool) {
	if a == nil || i < 0 || i >= len(a.elems) {
		return None(), false
	}
	return a.elems[i], true
}

// Values returns the elements. The slice must not be modified.
func (a *Array) Values() []Value {
	if a == nil {
		return nil
	}
	return a.elems
}

// String returns the elements in source form, e.g. [1, "a", none].
func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range a.Values() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.Repr())
	}
	sb.WriteByte(']')
	return sb.String()
}
