package compiler

import (
	"fmt"
	"strings"

	"github.com/custos/custoscript/internal/types"
)

// Chunk is a linear sequence of instructions with a parallel table of
// source lines.
type Chunk struct {
	Code  []Instruction
	Lines []int
}

// Len returns the number of instructions in the chunk.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// Write appends an instruction produced by the given source line and
// returns its index.
func (c *Chunk) Write(ins Instruction, line int) int {
	c.Code = append(c.Code, ins)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// Line returns the source line of instruction i, or 0 if unknown.
func (c *Chunk) Line(i int) int {
	if i < 0 || i >= len(c.Lines) {
		return 0
	}
	return c.Lines[i]
}

// Last returns the final instruction and true, or false if the chunk is empty.
func (c *Chunk) Last() (Instruction, bool) {
	if len(c.Code) == 0 {
		return Instruction{}, false
	}
	return c.Code[len(c.Code)-1], true
}

// FunctionKind distinguishes the top-level script from declared functions.
type FunctionKind uint8

const (
	KindScript FunctionKind = iota
	KindFunction
)

// Function is a compiled script function: a name, a parameter count and
// the chunk holding its body. The top-level script is a Function with
// KindScript and an empty name.
type Function struct {
	name  string
	arity int
	chunk Chunk
	kind  FunctionKind
}

// NewFunction creates an empty function of the given kind.
func NewFunction(name string, arity int, kind FunctionKind) *Function {
	return &Function{name: name, arity: arity, kind: kind}
}

// Name returns the declared name ("" for the script).
func (f *Function) Name() string { return f.name }

// Arity returns the number of parameters.
func (f *Function) Arity() int { return f.arity }

// Kind reports whether f is the script or a declared function.
func (f *Function) Kind() FunctionKind { return f.kind }

// Chunk returns the function body.
func (f *Function) Chunk() *Chunk { return &f.chunk }

var _ types.Callable = (*Function)(nil)

// Value wraps the function as a runtime value.
func (f *Function) Value() types.Value {
	return types.Function(f)
}

// FromValue returns the compiled function held by a Function value.
func FromValue(v types.Value) (*Function, bool) {
	c, ok := v.AsCallable()
	if !ok {
		return nil, false
	}
	fn, ok := c.(*Function)
	return fn, ok
}

// Functions returns f followed by every function nested in its constants,
// depth first in the order they are declared.
func (f *Function) Functions() []*Function {
	out := []*Function{f}
	for _, ins := range f.chunk.Code {
		if ins.Op != Constant {
			continue
		}
		if nested, ok := FromValue(ins.Const); ok {
			out = append(out, nested.Functions()...)
		}
	}
	return out
}

// Disassemble returns a human-readable listing of f and every nested
// function.
func (f *Function) Disassemble() string {
	var sb strings.Builder
	for i, fn := range f.Functions() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fn.disassembleTo(&sb)
	}
	return sb.String()
}

func (f *Function) disassembleTo(sb *strings.Builder) {
	if f.kind == KindScript {
		sb.WriteString("=== <script> ===\n")
	} else {
		fmt.Fprintf(sb, "=== %s/%d ===\n", f.name, f.arity)
	}
	prevLine := -1
	for i, ins := range f.chunk.Code {
		line := f.chunk.Line(i)
		lineCol := "   |"
		if line != prevLine {
			lineCol = fmt.Sprintf("%4d", line)
			prevLine = line
		}
		fmt.Fprintf(sb, "%04d %s  %s", i, lineCol, ins)
		if ins.IsJump() {
			fmt.Fprintf(sb, " -> %04d", i+ins.Arg)
		}
		sb.WriteByte('\n')
	}
}
