// Package vm executes compiled custoscript functions on a stack machine.
package vm

import (
	"fmt"
	"math"
	"sort"

	"github.com/custos/custoscript/internal/compiler"
	"github.com/custos/custoscript/internal/types"
)

const (
	// DefaultStackSize is the initial stack capacity.
	DefaultStackSize = 256

	// DefaultMaxFrames bounds call depth when Config.MaxFrames is zero.
	DefaultMaxFrames = 1024
)

// CallFrame is one activation record.
type CallFrame struct {
	fn         *compiler.Function
	ip         int // Index of the instruction being executed
	slotOffset int // Absolute stack index of local slot 0
}

// Config holds VM configuration options.
type Config struct {
	// MaxFrames bounds call depth (default DefaultMaxFrames).
	MaxFrames int

	// MaxSteps bounds the number of executed instructions across the VM's
	// lifetime. Zero means unlimited.
	MaxSteps int
}

// VM is the custoscript virtual machine. A VM is not safe for concurrent
// use; run independent scripts on independent VMs.
type VM struct {
	script *compiler.Function
	config Config

	// Value stack (inline, grows on demand)
	stackData []types.Value
	sp        int // Stack pointer (index of next free slot)

	// Call stack, innermost last
	frames []CallFrame

	// Globals and registered natives share one namespace.
	globals map[string]types.Value

	steps  int
	result types.Value
}

// New creates a VM that will run script.
func New(script *compiler.Function, config Config) *VM {
	if config.MaxFrames <= 0 {
		config.MaxFrames = DefaultMaxFrames
	}
	return &VM{
		script:    script,
		config:    config,
		stackData: make([]types.Value, DefaultStackSize),
		frames:    make([]CallFrame, 0, 16),
		globals:   make(map[string]types.Value),
	}
}

// DefineNative registers a host function as a global. A later script
// definition of the same name overwrites it.
func (vm *VM) DefineNative(n *types.Native) {
	vm.globals[n.Name()] = types.NativeValue(n)
}

// SetGlobal binds name to v.
func (vm *VM) SetGlobal(name string, v types.Value) {
	vm.globals[name] = v
}

// Global returns the value bound to name.
func (vm *VM) Global(name string) (types.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// Globals returns the names of all globals, sorted.
func (vm *VM) Globals() []string {
	names := make([]string, 0, len(vm.globals))
	for name := range vm.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Result returns the value the last Interpret or Invoke returned.
func (vm *VM) Result() types.Value {
	return vm.result
}

// Steps returns the number of instructions executed so far.
func (vm *VM) Steps() int {
	return vm.steps
}

// Interpret runs the script to completion. The returned error, if any, is
// a *RuntimeError; after a failure the VM should be discarded.
func (vm *VM) Interpret() error {
	return vm.run(vm.script)
}

// Invoke calls the global function name with args, reusing the globals
// left by Interpret. Errors raised by the call itself, such as a missing
// function, report line 1.
func (vm *VM) Invoke(name string, args ...types.Value) (types.Value, error) {
	tramp := compiler.NewFunction("", 0, compiler.KindScript)
	chunk := tramp.Chunk()
	chunk.Write(compiler.Instruction{Op: compiler.GetGlobal, Name: name}, 1)
	for _, arg := range args {
		chunk.Write(compiler.Instruction{Op: compiler.Constant, Const: arg}, 1)
	}
	chunk.Write(compiler.Instruction{Op: compiler.Call, Arg: len(args)}, 1)
	chunk.Write(compiler.Instruction{Op: compiler.Return}, 1)

	if err := vm.run(tramp); err != nil {
		return types.None(), err
	}
	return vm.result, nil
}

// run executes fn as a fresh top-level activation with fn at slot 0.
func (vm *VM) run(fn *compiler.Function) error {
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.result = types.None()
	vm.push(fn.Value())
	vm.frames = append(vm.frames, CallFrame{fn: fn})
	return vm.execute()
}

// -----------------------------------------------------------------------------
// Inline Stack Operations
// -----------------------------------------------------------------------------

// push pushes a value onto the stack.
func (vm *VM) push(v types.Value) {
	if vm.sp >= len(vm.stackData) {
		vm.growStack()
	}
	vm.stackData[vm.sp] = v
	vm.sp++
}

// pop removes and returns the top value from the stack.
func (vm *VM) pop() types.Value {
	vm.sp--
	v := vm.stackData[vm.sp]
	vm.stackData[vm.sp] = types.Value{}
	return v
}

// peek returns the top value without removing it.
func (vm *VM) peek() types.Value {
	return vm.stackData[vm.sp-1]
}

// peekN returns the value N positions from the top (0 = top).
func (vm *VM) peekN(n int) types.Value {
	return vm.stackData[vm.sp-1-n]
}

// truncate drops everything at and above index sp.
func (vm *VM) truncate(sp int) {
	clear(vm.stackData[sp:vm.sp])
	vm.sp = sp
}

// growStack doubles the stack capacity.
func (vm *VM) growStack() {
	newData := make([]types.Value, len(vm.stackData)*2)
	copy(newData, vm.stackData)
	vm.stackData = newData
}

// -----------------------------------------------------------------------------
// Execution
// -----------------------------------------------------------------------------

// fail builds a RuntimeError for the instruction at the current frame's ip.
func (vm *VM) fail(kind error, format string, args ...any) error {
	frame := &vm.frames[len(vm.frames)-1]
	chunk := frame.fn.Chunk()
	var ins compiler.Instruction
	if frame.ip < chunk.Len() {
		ins = chunk.Code[frame.ip]
	}
	return &RuntimeError{
		Err:         kind,
		Message:     fmt.Sprintf(format, args...),
		Line:        chunk.Line(frame.ip),
		Instruction: ins,
	}
}

func (vm *VM) execute() error {
	for {
		frame := &vm.frames[len(vm.frames)-1]
		code := frame.fn.Chunk().Code
		if frame.ip >= len(code) {
			// Hand-built chunks may lack a trailing Return.
			vm.push(types.None())
			if done := vm.doReturn(); done {
				return nil
			}
			continue
		}
		ins := code[frame.ip]

		vm.steps++
		if vm.config.MaxSteps > 0 && vm.steps > vm.config.MaxSteps {
			return vm.fail(ErrStepLimit, "step limit of %d instructions exceeded", vm.config.MaxSteps)
		}

		switch ins.Op {
		case compiler.Constant:
			vm.push(ins.Const)

		case compiler.Add:
			right := vm.pop()
			left := vm.pop()
			if right.Kind() == types.KindString || left.Kind() == types.KindString {
				vm.push(types.String(left.String() + right.String()))
				break
			}
			l, r, err := vm.numbers("add", left, right)
			if err != nil {
				return err
			}
			vm.push(types.Number(l + r))

		case compiler.Subtract:
			left, right := vm.popPair()
			l, r, err := vm.numbers("subtract", left, right)
			if err != nil {
				return err
			}
			vm.push(types.Number(l - r))

		case compiler.Multiply:
			left, right := vm.popPair()
			l, r, err := vm.numbers("multiply", left, right)
			if err != nil {
				return err
			}
			vm.push(types.Number(l * r))

		case compiler.Divide:
			left, right := vm.popPair()
			l, r, err := vm.numbers("divide", left, right)
			if err != nil {
				return err
			}
			if r == 0 {
				return vm.fail(ErrDivisionByZero, "cannot divide a number by zero")
			}
			vm.push(types.Number(l / r))

		case compiler.Negate:
			v := vm.pop()
			n, ok := v.AsNumber()
			if !ok {
				return vm.fail(ErrInvalidOperand, "cannot negate a %s", v.Kind())
			}
			vm.push(types.Number(-n))

		case compiler.Equal:
			left, right := vm.popPair()
			vm.push(types.Bool(types.Equal(left, right)))

		case compiler.NotEqual:
			left, right := vm.popPair()
			vm.push(types.Bool(!types.Equal(left, right)))

		case compiler.Greater, compiler.GreaterEq, compiler.Lesser, compiler.LesserEq:
			left, right := vm.popPair()
			l, r, err := vm.numbers("compare", left, right)
			if err != nil {
				return err
			}
			vm.push(types.Bool(compare(ins.Op, l, r)))

		case compiler.Not:
			vm.push(types.Bool(!vm.pop().Truthy()))

		case compiler.DefineGlobal:
			vm.globals[ins.Name] = vm.pop()

		case compiler.GetGlobal:
			v, ok := vm.globals[ins.Name]
			if !ok {
				return vm.fail(ErrUndefinedGlobal, "no global with name '%s' exists", ins.Name)
			}
			vm.push(v)

		case compiler.SetGlobal:
			vm.globals[ins.Name] = vm.peek()

		case compiler.GetLocal:
			idx := frame.slotOffset + ins.Arg
			if ins.Arg < 0 || idx >= vm.sp {
				return vm.fail(ErrInvalidLocalAccess, "no such local variable in the scope")
			}
			vm.push(vm.stackData[idx])

		case compiler.SetLocal:
			idx := frame.slotOffset + ins.Arg
			if ins.Arg < 0 || idx >= vm.sp {
				return vm.fail(ErrInvalidLocalAccess, "no such local variable in the scope")
			}
			vm.stackData[idx] = vm.peek()

		case compiler.Pop:
			vm.pop()

		case compiler.Call:
			if err := vm.call(ins.Arg); err != nil {
				return err
			}
			// A script call switched frames; start the callee at ip 0.
			continue

		case compiler.Return:
			if done := vm.doReturn(); done {
				return nil
			}
			continue

		case compiler.JumpIfFalse:
			if !vm.peek().Truthy() {
				frame.ip += ins.Arg
				continue
			}

		case compiler.Jump:
			frame.ip += ins.Arg
			continue

		case compiler.IndexInto:
			index := vm.pop()
			subject := vm.pop()
			v, err := vm.index(subject, index)
			if err != nil {
				return err
			}
			vm.push(v)

		case compiler.ArrayLiteral:
			n := ins.Arg
			elems := make([]types.Value, n)
			copy(elems, vm.stackData[vm.sp-n:vm.sp])
			vm.truncate(vm.sp - n)
			vm.push(types.ArrayValue(types.NewArray(elems)))

		default:
			return vm.fail(ErrInvalidOperand, "unknown instruction %s", ins.Op)
		}

		frame.ip++
	}
}

// popPair pops right then left and returns them in source order.
func (vm *VM) popPair() (types.Value, types.Value) {
	right := vm.pop()
	left := vm.pop()
	return left, right
}

// numbers requires both operands to be numbers, checking the right-hand
// side first.
func (vm *VM) numbers(verb string, left, right types.Value) (float64, float64, error) {
	r, ok := right.AsNumber()
	if !ok {
		return 0, 0, vm.fail(ErrInvalidOperand,
			"cannot %s two non-numbers, right-hand side is not a number but a %s", verb, right.Kind())
	}
	l, ok := left.AsNumber()
	if !ok {
		return 0, 0, vm.fail(ErrInvalidOperand,
			"cannot %s two non-numbers, left-hand side is not a number but a %s", verb, left.Kind())
	}
	return l, r, nil
}

func compare(op compiler.Op, l, r float64) bool {
	switch op {
	case compiler.Greater:
		return l > r
	case compiler.GreaterEq:
		return l >= r
	case compiler.Lesser:
		return l < r
	default:
		return l <= r
	}
}

// call dispatches Call(n). The callee sits n slots below the top.
func (vm *VM) call(n int) error {
	callee := vm.peekN(n)
	frame := &vm.frames[len(vm.frames)-1]

	switch callee.Kind() {
	case types.KindFunction:
		fn, ok := compiler.FromValue(callee)
		if !ok {
			return vm.fail(ErrNotCallable, "cannot call a %s", callee.Kind())
		}
		if fn.Arity() != n {
			return vm.fail(ErrArityMismatch,
				"function '%s' accepts %d arguments but %d were provided", fn.Name(), fn.Arity(), n)
		}
		if len(vm.frames) >= vm.config.MaxFrames {
			return vm.fail(ErrStackOverflow, "stack overflow, more than %d nested calls", vm.config.MaxFrames)
		}
		// Resume the caller after the Call once the callee returns.
		frame.ip++
		vm.frames = append(vm.frames, CallFrame{fn: fn, slotOffset: vm.sp - n - 1})
		return nil

	case types.KindNative:
		native, _ := callee.AsNative()
		if !native.Variadic() && native.Arity() != n {
			return vm.fail(ErrArityMismatch,
				"function '%s' accepts %d arguments but %d were provided", native.Name(), native.Arity(), n)
		}
		args := make([]types.Value, n)
		copy(args, vm.stackData[vm.sp-n:vm.sp])
		result := native.Call(args)
		vm.truncate(vm.sp - n - 1)
		vm.push(result)
		frame.ip++
		return nil

	default:
		return vm.fail(ErrNotCallable, "cannot call a non-function, got a %s", callee.Kind())
	}
}

// doReturn pops the result and the current frame. It reports whether the
// outermost frame returned.
func (vm *VM) doReturn() bool {
	result := vm.pop()
	frame := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		vm.result = result
		vm.truncate(0)
		return true
	}
	vm.truncate(frame.slotOffset)
	vm.push(result)
	return false
}

// index implements IndexInto. Indexes are truncated toward zero and
// negative indexes clamp to 0; out-of-range reads yield none.
func (vm *VM) index(subject, index types.Value) (types.Value, error) {
	n, ok := index.AsNumber()
	if !ok {
		return types.None(), vm.fail(ErrInvalidOperand, "invalid index, expected a number but got a %s", index.Kind())
	}
	i := 0
	if n > 0 && !math.IsNaN(n) {
		if n >= math.MaxInt32 {
			return types.None(), nil
		}
		i = int(n)
	}

	switch subject.Kind() {
	case types.KindString:
		s, _ := subject.AsString()
		for _, r := range s {
			if i == 0 {
				return types.String(string(r)), nil
			}
			i--
		}
		return types.None(), nil

	case types.KindArray:
		arr, _ := subject.AsArray()
		v, _ := arr.Get(i)
		return v, nil

	default:
		return types.None(), vm.fail(ErrNotIndexable, "can only index into a string or array, got: %s", subject.Kind())
	}
}
