// Package compiler compiles an AST into bytecode for the VM.
package compiler

import (
	"strconv"

	"github.com/custos/custoscript/internal/types"
)

// Op identifies a virtual machine instruction.
type Op uint8

const (
	// Constant pushes Instruction.Const.
	Constant Op = iota

	// Arithmetic: pop right, pop left, push result
	Add      // a + b (string concatenation if either side is a string)
	Subtract // a - b
	Multiply // a * b
	Divide   // a / b
	Negate   // -a

	// Comparison: pop right, pop left, push Bool
	Equal     // a == b
	NotEqual  // a != b
	Greater   // a > b
	GreaterEq // a >= b
	Lesser    // a < b
	LesserEq  // a <= b
	Not       // !a (truthiness)

	// Globals, addressed by Instruction.Name
	DefineGlobal // Pop value and bind it to Name
	GetGlobal    // Push the value bound to Name
	SetGlobal    // Rebind Name to the top of stack (no pop)

	// Locals, addressed by slot Instruction.Arg relative to the frame
	GetLocal // Push slot Arg
	SetLocal // Store top of stack into slot Arg (no pop)

	// Calls
	Call   // Call the callee Arg slots below the top with Arg arguments
	Return // Pop the result, discard the frame, push the result for the caller

	// Stack
	Pop // Discard top of stack

	// Control flow. Arg is a forward offset from the jump itself.
	JumpIfFalse // Jump if the top of stack is falsy (no pop)
	Jump        // Jump unconditionally

	// Composite values
	IndexInto    // Pop index, pop subject, push subject[index]
	ArrayLiteral // Pop Arg values, push an array of them in source order
)

var opNames = [...]string{
	Constant:     "Constant",
	Add:          "Add",
	Subtract:     "Subtract",
	Multiply:     "Multiply",
	Divide:       "Divide",
	Negate:       "Negate",
	Equal:        "Equal",
	NotEqual:     "NotEqual",
	Greater:      "Greater",
	GreaterEq:    "GreaterEq",
	Lesser:       "Lesser",
	LesserEq:     "LesserEq",
	Not:          "Not",
	DefineGlobal: "DefineGlobal",
	GetGlobal:    "GetGlobal",
	SetGlobal:    "SetGlobal",
	GetLocal:     "GetLocal",
	SetLocal:     "SetLocal",
	Call:         "Call",
	Return:       "Return",
	Pop:          "Pop",
	JumpIfFalse:  "JumpIfFalse",
	Jump:         "Jump",
	IndexInto:    "IndexInto",
	ArrayLiteral: "ArrayLiteral",
}

// String returns the opcode name.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "Op(" + strconv.Itoa(int(op)) + ")"
}

// Instruction is a single decoded VM instruction. Only the operand field
// relevant to Op is set.
type Instruction struct {
	Op    Op
	Arg   int         // Slot, argument count, element count or jump offset
	Name  string      // Global name
	Const types.Value // Constant operand
}

// String returns the debug form of the instruction, e.g. Call(2),
// GetGlobal(main), Constant(Number(3)).
func (ins Instruction) String() string {
	switch ins.Op {
	case Constant:
		return "Constant(" + ins.Const.Debug() + ")"
	case DefineGlobal, GetGlobal, SetGlobal:
		return ins.Op.String() + "(" + ins.Name + ")"
	case GetLocal, SetLocal, Call, JumpIfFalse, Jump, ArrayLiteral:
		return ins.Op.String() + "(" + strconv.Itoa(ins.Arg) + ")"
	default:
		return ins.Op.String()
	}
}

// IsJump reports whether the instruction transfers control by offset.
func (ins Instruction) IsJump() bool {
	return ins.Op == Jump || ins.Op == JumpIfFalse
}
