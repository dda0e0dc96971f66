package vm

import (
	"errors"
	"fmt"

	"github.com/custos/custoscript/internal/compiler"
)

// Runtime error kinds. A *RuntimeError wraps exactly one of these.
var (
	ErrInvalidOperand     = errors.New("invalid operand")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrUndefinedGlobal    = errors.New("undefined global")
	ErrInvalidLocalAccess = errors.New("invalid local access")
	ErrArityMismatch      = errors.New("arity mismatch")
	ErrNotCallable        = errors.New("not callable")
	ErrNotIndexable       = errors.New("not indexable")
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStepLimit          = errors.New("step limit exceeded")
)

// RuntimeError is a fatal error raised while executing bytecode.
type RuntimeError struct {
	Err         error                // One of the Err* kinds above
	Message     string               // Human-readable description
	Line        int                  // Source line of the failing instruction
	Instruction compiler.Instruction // The failing instruction
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("vm error: %s at line %d on instruction '%s'", e.Message, e.Line, e.Instruction)
}

// Unwrap returns the error kind, for errors.Is.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}
