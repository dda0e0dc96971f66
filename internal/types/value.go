// Package types defines runtime value types for custoscript.
package types

import (
	"math"
	"strconv"
	"strings"
)

// Kind represents the variant of a Value.
type Kind uint8

const (
	KindNone     Kind = iota // The none value (also the zero Value)
	KindNumber               // 64-bit float
	KindBool                 // true or false
	KindString               // Immutable string
	KindFunction             // Compiled script function
	KindNative               // Host-provided function
	KindArray                // Shared fixed-length array
)

// String returns the user-facing name of the kind, as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindFunction:
		return "fn"
	case KindNative:
		return "native fn"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Callable is implemented by every value that can appear as the callee of
// a call: compiled script functions and host natives.
type Callable interface {
	// Name returns the function name ("" for the top-level script).
	Name() string
	// Arity returns the declared parameter count. For natives, 0 means
	// any number of arguments is accepted.
	Arity() int
}

// Value is a custoscript runtime value.
// It is a small tagged union passed by value; arrays and callables are
// held by pointer and therefore shared between copies.
type Value struct {
	kind Kind
	num  float64
	str  string
	obj  any // Callable or *Array
}

// Constructors

// None returns the none value.
func None() Value {
	return Value{}
}

// Number creates a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool creates a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Function wraps a compiled script function.
func Function(fn Callable) Value {
	return Value{kind: KindFunction, obj: fn}
}

// NativeValue wraps a host function.
func NativeValue(n *Native) Value {
	return Value{kind: KindNative, obj: n}
}

// ArrayValue wraps a shared array.
func ArrayValue(a *Array) Value {
	return Value{kind: KindArray, obj: a}
}

// NewArrayValue builds a new array value owning elems.
func NewArrayValue(elems ...Value) Value {
	return ArrayValue(NewArray(elems))
}

// Strings builds an array of string values.
func Strings(ss []string) Value {
	elems := make([]Value, len(ss))
	for i, s := range ss {
		elems[i] = String(s)
	}
	return ArrayValue(NewArray(elems))
}

// Accessors

// Kind returns the value's variant.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNone returns true if the value is none.
func (v Value) IsNone() bool {
	return v.kind == KindNone
}

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.num != 0, v.kind == KindBool
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsCallable returns the callee held by a Function or Native value.
func (v Value) AsCallable() (Callable, bool) {
	switch v.kind {
	case KindFunction, KindNative:
		c, ok := v.obj.(Callable)
		return c, ok
	}
	return nil, false
}

// AsNative returns the host function held by v.
func (v Value) AsNative() (*Native, bool) {
	n, ok := v.obj.(*Native)
	return n, ok && v.kind == KindNative
}

// AsArray returns the array held by v.
func (v Value) AsArray() (*Array, bool) {
	a, ok := v.obj.(*Array)
	return a, ok && v.kind == KindArray
}

// Truthy reports the truthiness of v: only false and none are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNone:
		return false
	case KindBool:
		return v.num != 0
	default:
		return true
	}
}

// Equal reports whether a and b are equal. Only numbers, booleans, strings
// and none compare by value, and only against the same variant; every other
// pairing is unequal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNone:
		return true
	case KindNumber, KindBool:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	default:
		return false
	}
}

// Conversions

// String returns the canonical textual form of v, as used by string
// concatenation and printing.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindString:
		return v.str
	case KindFunction:
		c, _ := v.obj.(Callable)
		if c == nil {
			return "fn <>"
		}
		return "fn <'" + c.Name() + "' " + strconv.Itoa(c.Arity()) + ">"
	case KindNative:
		c, _ := v.obj.(Callable)
		if c == nil {
			return "native fn <>"
		}
		return "native fn <'" + c.Name() + "'>"
	case KindArray:
		a, _ := v.obj.(*Array)
		return a.String()
	default:
		return "<unknown>"
	}
}

// Repr returns v as it would be written in source: strings are quoted.
func (v Value) Repr() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.String()
}

// Debug returns a tagged form used in disassembly, e.g. Number(3).
func (v Value) Debug() string {
	switch v.kind {
	case KindNone:
		return "None"
	case KindNumber:
		return "Number(" + FormatNumber(v.num) + ")"
	case KindBool:
		return "Bool(" + v.String() + ")"
	case KindString:
		return "String(" + strconv.Quote(v.str) + ")"
	case KindFunction:
		return "Function(" + v.String() + ")"
	case KindNative:
		return "Native(" + v.String() + ")"
	case KindArray:
		return "Array(" + v.String() + ")"
	default:
		return v.String()
	}
}

// FormatNumber formats n in its shortest decimal form: 2, 0.5, inf, -inf, NaN.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ParseNumber parses a whole string as a decimal number.
// Leading and trailing whitespace is ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	switch s {
	case "inf", "+inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	// Reject forms strconv accepts but the language does not write.
	for _, c := range s {
		if !(c >= '0' && c <= '9') && c != '.' && c != '-' && c != '+' && c != 'e' && c != 'E' {
			return 0, false
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
