// Package semantic provides static analysis for custoscript programs.
//
// The analyzer mirrors the scoping rules of the compiler so that its
// findings match what the VM would do at run time:
//   - Top-level var and func declarations are globals, bound late, so a
//     function may refer to a global declared after it
//   - Assigning to a name that resolves nowhere creates a global
//   - Declarations inside any block or function body are locals
//   - A function sees its own locals and the globals, never the locals of
//     an enclosing function
//
// Errors are problems the VM is certain to report (a for-loop, a call
// with the wrong number of arguments to a function that is never
// rebound). Warnings are suspicious but legal code.
package semantic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custos/custoscript/internal/token"
)

// Error represents a semantic analysis error with source location.
type Error struct {
	Pos     token.Position
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Warning represents a semantic warning (non-fatal issue).
type Warning struct {
	Pos     token.Position
	Message string
}

// String returns the warning as a formatted string.
func (w *Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Pos, w.Message)
}

// ErrorList is a collection of semantic errors.
type ErrorList []*Error

// Add appends an error to the list.
func (el *ErrorList) Add(pos token.Position, format string, args ...any) {
	*el = append(*el, &Error{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// Sort orders the errors by source position.
func (el ErrorList) Sort() {
	sort.SliceStable(el, func(i, j int) bool { return el[i].Pos.Before(el[j].Pos) })
}

// Err returns an error if the list is non-empty, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error implements the error interface for ErrorList.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(el[0].Error())
		for _, e := range el[1:] {
			sb.WriteByte('\n')
			sb.WriteString(e.Error())
		}
		return sb.String()
	}
}

// WarningList is a collection of semantic warnings.
type WarningList []*Warning

// Add appends a warning to the list.
func (wl *WarningList) Add(pos token.Position, format string, args ...any) {
	*wl = append(*wl, &Warning{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// Sort orders the warnings by source position.
func (wl WarningList) Sort() {
	sort.SliceStable(wl, func(i, j int) bool { return wl[i].Pos.Before(wl[j].Pos) })
}

// Common error messages as constants for consistency.
const (
	errForLoop         = "for-loops are not supported"
	errArity           = "function '%s' accepts %d arguments but %d were provided"
	errNotCallable     = "cannot call a non-function, got a %s"
	errHostNotCallable = "cannot call '%s', the host defines it as a value"
	errNotIndexable    = "can only index into a string or array, got: %s"
	errBadIndex        = "invalid index, expected a number but got a %s"
	errDuplicateParam  = "duplicate parameter %q in function %q"
)

// Common warning messages.
const (
	warnUndefined     = "undefined name %q"
	warnOuterLocal    = "%q is a local of %s, which nested functions cannot see"
	warnUnusedVar     = "variable %q is declared but never used"
	warnUnusedFunc    = "function %q is declared but never used"
	warnRedeclared    = "variable %q redeclared in this scope"
	warnUnreachable   = "unreachable code after ret"
	warnDivideByZero  = "division by zero"
	warnRebindsNative = "%q rebinds a host function"
)
