package custoscript

import "github.com/custos/custoscript/internal/types"

// Value is a script value: none, number, boolean, string, function,
// native function or array.
type Value = types.Value

// Native is a host function callable from scripts.
type Native = types.Native

// NativeFunc is the Go signature of a native.
type NativeFunc = types.NativeFunc

// NewNative creates a host function. An arity of 0 accepts any number of
// arguments.
func NewNative(name string, arity int, fn NativeFunc) *Native {
	return types.NewNative(name, arity, fn)
}

// None returns the none value.
func None() Value { return types.None() }

// Number returns a number value.
func Number(n float64) Value { return types.Number(n) }

// Bool returns a boolean value.
func Bool(b bool) Value { return types.Bool(b) }

// String returns a string value.
func String(s string) Value { return types.String(s) }

// Array returns an array value holding elems.
func Array(elems ...Value) Value { return types.NewArrayValue(elems...) }

// Strings returns an array of string values.
func Strings(ss []string) Value { return types.Strings(ss) }
