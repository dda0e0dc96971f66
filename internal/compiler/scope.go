package compiler

// local is a named stack slot live in some scope of the current function.
type local struct {
	name  string
	depth int
}

// frameLocals holds the locals of one function being compiled. Slot 0 is
// reserved for the callee value and never matches a name.
type frameLocals struct {
	locals []local
}

// VariableManager tracks scope depth and local slot numbering for a
// compilation. One manager is shared, by pointer, by the compiler of the
// script and every nested function compiler.
type VariableManager struct {
	frames []*frameLocals
	depth  int
}

// NewVariableManager returns a manager positioned at the top level of the
// script, with slot 0 reserved for the script itself.
func NewVariableManager() *VariableManager {
	vm := &VariableManager{}
	vm.frames = append(vm.frames, &frameLocals{locals: []local{{depth: 0}}})
	return vm
}

func (vm *VariableManager) current() *frameLocals {
	return vm.frames[len(vm.frames)-1]
}

// BeginFunction starts a new local list for a function body. Declarations
// inside a function are always local, even when the function itself is
// declared at the top level.
func (vm *VariableManager) BeginFunction() {
	vm.depth++
	vm.frames = append(vm.frames, &frameLocals{locals: []local{{depth: vm.depth}}})
}

// EndFunction discards the current function's locals. No pops are needed:
// returning from the function drops its whole stack window.
func (vm *VariableManager) EndFunction() {
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.depth--
}

// BeginScope enters a nested block.
func (vm *VariableManager) BeginScope() {
	vm.depth++
}

// EndScope leaves a block and returns how many locals it declared; the
// caller emits one Pop for each.
func (vm *VariableManager) EndScope() int {
	vm.depth--
	f := vm.current()
	n := 0
	for len(f.locals) > 1 && f.locals[len(f.locals)-1].depth > vm.depth {
		f.locals = f.locals[:len(f.locals)-1]
		n++
	}
	return n
}

// Declare binds name in the current scope. Inside any scope the value is
// already on the stack and the returned slot addresses it; at the top
// level it returns false and the caller defines a global.
func (vm *VariableManager) Declare(name string) (slot int, isLocal bool) {
	if vm.depth == 0 {
		return 0, false
	}
	f := vm.current()
	f.locals = append(f.locals, local{name: name, depth: vm.depth})
	return len(f.locals) - 1, true
}

// Resolve looks name up among the current function's live locals, newest
// first. It returns false when name must be treated as a global.
func (vm *VariableManager) Resolve(name string) (slot int, isLocal bool) {
	f := vm.current()
	for i := len(f.locals) - 1; i >= 1; i-- {
		if f.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}
