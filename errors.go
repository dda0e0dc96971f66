package custoscript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/custos/custoscript/internal/compiler"
	"github.com/custos/custoscript/internal/parser"
	"github.com/custos/custoscript/internal/semantic"
	"github.com/custos/custoscript/internal/vm"
)

// Runtime error kinds. A *RuntimeError unwraps to exactly one of these.
var (
	ErrInvalidOperand     = vm.ErrInvalidOperand
	ErrDivisionByZero     = vm.ErrDivisionByZero
	ErrUndefinedGlobal    = vm.ErrUndefinedGlobal
	ErrInvalidLocalAccess = vm.ErrInvalidLocalAccess
	ErrArityMismatch      = vm.ErrArityMismatch
	ErrNotCallable        = vm.ErrNotCallable
	ErrNotIndexable       = vm.ErrNotIndexable
	ErrStackOverflow      = vm.ErrStackOverflow
	ErrStepLimit          = vm.ErrStepLimit
)

// ParseError represents a syntax error in script source code.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description

	report string // Message plus the offending line, underlined
}

func (e *ParseError) Error() string {
	if e.report != "" {
		return e.report
	}
	return fmt.Sprintf("%d:%d %s", e.Line, e.Column, e.Message)
}

// ParseErrors holds every syntax error found in a source, in order.
type ParseErrors []*ParseError

func (el ParseErrors) Error() string {
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// CompileError represents a construct the compiler cannot translate.
type CompileError struct {
	Line    int
	Column  int
	Message string
}

func (e *CompileError) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d %s", e.Line, e.Column, e.Message)
}

// RuntimeError represents the error that stopped a script.
type RuntimeError struct {
	Message     string // Error description
	Line        int    // Source line of the failing instruction
	Instruction string // Failing instruction, as disassembled

	kind error
	text string
}

func (e *RuntimeError) Error() string {
	return e.text
}

// Unwrap returns the error kind, one of the Err* variables.
func (e *RuntimeError) Unwrap() error {
	return e.kind
}

// LintError is an error found by Check: code certain to fail at run time.
type LintError struct {
	Line    int
	Column  int
	Message string
}

func (e *LintError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Warning is a suspicious construct found by Check.
type Warning struct {
	Line    int
	Column  int
	Message string
}

func (w *Warning) String() string {
	return fmt.Sprintf("%d:%d: warning: %s", w.Line, w.Column, w.Message)
}

// convertParseError converts parser errors to the public type.
func convertParseError(err error) error {
	var list parser.ErrorList
	if errors.As(err, &list) {
		out := make(ParseErrors, len(list))
		for i, pe := range list {
			out[i] = newParseError(pe)
		}
		return out
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return ParseErrors{newParseError(pe)}
	}
	return ParseErrors{{Message: err.Error()}}
}

func newParseError(pe *parser.ParseError) *ParseError {
	return &ParseError{
		Line:    pe.Pos.Line,
		Column:  pe.Pos.Column,
		Message: pe.Message,
		report:  pe.Error(),
	}
}

func convertCompileError(err error) error {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return &CompileError{Line: ce.Pos.Line, Column: ce.Pos.Column, Message: ce.Message}
	}
	return &CompileError{Message: err.Error()}
}

// convertRuntimeError converts VM errors to the public type. Other errors
// pass through unchanged.
func convertRuntimeError(err error) error {
	var re *vm.RuntimeError
	if !errors.As(err, &re) {
		return err
	}
	return &RuntimeError{
		Message:     re.Message,
		Line:        re.Line,
		Instruction: re.Instruction.String(),
		kind:        re.Err,
		text:        re.Error(),
	}
}

func convertLint(result *semantic.ResolveResult) ([]*LintError, []*Warning) {
	var errs []*LintError
	for _, e := range result.Errors {
		errs = append(errs, &LintError{Line: e.Pos.Line, Column: e.Pos.Column, Message: e.Message})
	}
	var warns []*Warning
	for _, w := range result.Warnings {
		warns = append(warns, &Warning{Line: w.Pos.Line, Column: w.Pos.Column, Message: w.Message})
	}
	return errs, warns
}
