package semantic

import (
	"sort"

	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/token"
)

// SymbolKind defines the category of a symbol.
type SymbolKind int

const (
	SymbolGlobal   SymbolKind = iota // Global variable
	SymbolLocal                      // Block or function-body variable
	SymbolParam                      // Function parameter
	SymbolFunction                   // Script function
	SymbolHost                       // Global provided by the embedding host
)

// String returns a human-readable name for the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case SymbolGlobal:
		return "global"
	case SymbolLocal:
		return "local"
	case SymbolParam:
		return "param"
	case SymbolFunction:
		return "function"
	case SymbolHost:
		return "host"
	default:
		return "unknown"
	}
}

// NotCallable marks a host global that holds a plain value.
const NotCallable = -1

// Host describes the globals an embedding host defines before a script
// runs, by name. The value is the arity of a native function (0 for a
// variadic one) or NotCallable for a seeded value.
type Host map[string]int

// FuncInfo holds information about a script function declaration.
type FuncInfo struct {
	Name   string
	Decl   *ast.FuncDecl
	Parent *FuncInfo // Enclosing function, nil for top-level functions
}

// Arity returns the declared parameter count.
func (f *FuncInfo) Arity() int {
	return len(f.Decl.Params)
}

// Symbol holds information about a declared symbol.
type Symbol struct {
	Name  string         // Symbol name
	Kind  SymbolKind     // Category (global, local, function, ...)
	Pos   token.Position // Declaration position (invalid for host symbols)
	Arity int            // For host symbols: native arity or NotCallable
	Func  *FuncInfo      // For SymbolFunction

	Used     bool // Read at least once
	Assigned int  // Number of assignments after the declaration
	Rebound  bool // Declared more than once in the same scope
}

// Stable reports whether the symbol still holds its declared value for
// the whole run: it is declared once and never assigned.
func (s *Symbol) Stable() bool {
	return !s.Rebound && s.Assigned == 0
}

// SymbolTable implements a hierarchical symbol table with scope support.
// A table marked as a function boundary holds a function's parameters and
// top-level body declarations; lookups crossing it skip to the globals.
type SymbolTable struct {
	parent   *SymbolTable
	symbols  map[string]*Symbol
	name     string    // Scope name (e.g., function name or "global")
	fn       *FuncInfo // Function owning this scope, nil at top level
	boundary bool
}

// NewSymbolTable creates a new symbol table with the given parent.
// Pass nil for the global scope.
func NewSymbolTable(parent *SymbolTable, name string) *SymbolTable {
	st := &SymbolTable{
		parent:  parent,
		symbols: make(map[string]*Symbol),
		name:    name,
	}
	if parent != nil {
		st.fn = parent.fn
	}
	return st
}

// newFunctionTable creates the outermost scope of fn's body.
func newFunctionTable(parent *SymbolTable, fn *FuncInfo) *SymbolTable {
	st := NewSymbolTable(parent, fn.Name)
	st.fn = fn
	st.boundary = true
	return st
}

// Name returns the scope name.
func (st *SymbolTable) Name() string {
	return st.name
}

// Parent returns the parent scope, or nil for the global scope.
func (st *SymbolTable) Parent() *SymbolTable {
	return st.parent
}

// IsGlobal reports whether this is the global scope.
func (st *SymbolTable) IsGlobal() bool {
	return st.parent == nil
}

// Define adds a new symbol to the current scope. Defining a name twice in
// one scope keeps the first symbol, marks it rebound and returns it with
// ok set to false.
func (st *SymbolTable) Define(name string, kind SymbolKind, pos token.Position) (sym *Symbol, ok bool) {
	if existing, exists := st.symbols[name]; exists {
		existing.Rebound = true
		return existing, false
	}
	sym = &Symbol{
		Name:  name,
		Kind:  kind,
		Pos:   pos,
		Arity: NotCallable,
	}
	st.symbols[name] = sym
	return sym, true
}

// LookupLocal finds a symbol in this scope only.
func (st *SymbolTable) LookupLocal(name string) *Symbol {
	return st.symbols[name]
}

// Symbols returns all symbols in this scope (not including parents),
// sorted by name.
func (st *SymbolTable) Symbols() []*Symbol {
	result := make([]*Symbol, 0, len(st.symbols))
	for _, sym := range st.symbols {
		result = append(result, sym)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Len returns the number of symbols in this scope.
func (st *SymbolTable) Len() int {
	return len(st.symbols)
}
