package semantic

import (
	"fmt"
	"sort"

	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/token"
)

// ResolveResult contains the results of semantic analysis.
type ResolveResult struct {
	// Global symbol table (includes host symbols)
	Globals *SymbolTable

	// Script functions in source order, nested ones included
	Functions []*FuncInfo

	// Bindings of identifier reads and assignment targets
	Uses    map[*ast.Ident]*Symbol
	Assigns map[*ast.AssignExpr]*Symbol

	// Errors encountered during resolution
	Errors ErrorList

	// Warnings (non-fatal issues)
	Warnings WarningList
}

// unresolved is a read of a name with no binding yet. Globals are late
// bound, so it is settled once every assignment has been seen.
type unresolved struct {
	ident   *ast.Ident
	outer   *Symbol      // Same-named local of an enclosing scope, if any
	outerIn *SymbolTable // Scope holding outer
}

// Resolver performs name resolution on an AST.
type Resolver struct {
	result  *ResolveResult
	scope   *SymbolTable
	funcs   map[*ast.FuncDecl]*FuncInfo
	pending []unresolved
}

// Resolve binds every name in prog. host lists the globals the embedding
// application defines before the script runs; it may be nil.
func Resolve(prog *ast.Program, host Host) (*ResolveResult, error) {
	r := &Resolver{
		result: &ResolveResult{
			Globals: NewSymbolTable(nil, "global"),
			Uses:    make(map[*ast.Ident]*Symbol),
			Assigns: make(map[*ast.AssignExpr]*Symbol),
		},
		funcs: make(map[*ast.FuncDecl]*FuncInfo),
	}
	r.scope = r.result.Globals

	// Phase 1: host globals
	r.defineHost(host)

	// Phase 2: top-level declarations, visible from every function
	r.collectGlobals(prog)

	// Phase 3: resolve all scopes
	for _, decl := range prog.Decls {
		r.resolveStmt(decl)
	}

	// Phase 4: settle late-bound reads
	r.finalize()

	r.result.Errors.Sort()
	r.result.Warnings.Sort()
	return r.result, r.result.Errors.Err()
}

func (r *Resolver) defineHost(host Host) {
	names := make([]string, 0, len(host))
	for name := range host {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sym, _ := r.result.Globals.Define(name, SymbolHost, token.Position{})
		sym.Arity = host[name]
	}
}

func (r *Resolver) collectGlobals(prog *ast.Program) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			r.defineGlobal(d.Name, SymbolGlobal, d.NamePos)

		case *ast.FuncDecl:
			fi := r.newFunc(d, nil)
			if sym, ok := r.defineGlobal(d.Name, SymbolFunction, d.NamePos); ok {
				sym.Func = fi
			}
		}
	}
}

func (r *Resolver) defineGlobal(name string, kind SymbolKind, pos token.Position) (*Symbol, bool) {
	sym, ok := r.result.Globals.Define(name, kind, pos)
	if !ok && sym.Kind == SymbolHost && sym.Arity != NotCallable {
		r.result.Warnings.Add(pos, warnRebindsNative, name)
	}
	return sym, ok
}

func (r *Resolver) newFunc(decl *ast.FuncDecl, parent *FuncInfo) *FuncInfo {
	fi := &FuncInfo{Name: decl.Name, Decl: decl, Parent: parent}
	r.funcs[decl] = fi
	r.result.Functions = append(r.result.Functions, fi)
	return fi
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		r.resolveExpr(s.Value)
		if !r.scope.IsGlobal() {
			r.declareLocal(s.Name, SymbolLocal, s.NamePos)
		}

	case *ast.FuncDecl:
		fi := r.funcs[s]
		if fi == nil {
			fi = r.newFunc(s, r.scope.fn)
		}
		r.resolveFunction(fi)
		// A function declared in a block is bound after its body, so
		// its own name is not visible inside it.
		if !r.scope.IsGlobal() {
			sym := r.declareLocal(s.Name, SymbolFunction, s.NamePos)
			if sym.Func == nil {
				sym.Func = fi
			}
		}

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.BlockStmt:
		r.resolveBlock(s)

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveBlock(s.Then)
		if s.Else != nil {
			r.resolveBlock(s.Else)
		}

	case *ast.ForStmt:
		// Not compilable, but resolving the body avoids cascading
		// warnings about its loop variable.
		r.resolveExpr(s.Iterable)
		r.pushScope("for")
		sym, _ := r.scope.Define(s.Var, SymbolLocal, s.VarPos)
		sym.Used = true
		if s.Body != nil {
			for _, st := range s.Body.Stmts {
				r.resolveStmt(st)
			}
		}
		r.popScope()

	case *ast.RetStmt:
		if s.Value != nil {
			r.resolveExpr(s.Value)
		}
	}
}

func (r *Resolver) resolveFunction(fi *FuncInfo) {
	outer := r.scope
	r.scope = newFunctionTable(outer, fi)

	for _, p := range fi.Decl.Params {
		if _, ok := r.scope.Define(p.Name, SymbolParam, p.Pos); !ok {
			r.result.Errors.Add(p.Pos, errDuplicateParam, p.Name, fi.Name)
		}
	}
	// The body shares the parameters' scope.
	if fi.Decl.Body != nil {
		for _, st := range fi.Decl.Body.Stmts {
			r.resolveStmt(st)
		}
	}

	r.popScope()
}

func (r *Resolver) resolveBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	r.pushScope("block")
	for _, st := range b.Stmts {
		r.resolveStmt(st)
	}
	r.popScope()
}

func (r *Resolver) pushScope(name string) {
	r.scope = NewSymbolTable(r.scope, name)
}

// popScope leaves the current scope, reporting locals nobody read.
func (r *Resolver) popScope() {
	for _, sym := range r.scope.Symbols() {
		if sym.Used {
			continue
		}
		switch sym.Kind {
		case SymbolLocal:
			r.result.Warnings.Add(sym.Pos, warnUnusedVar, sym.Name)
		case SymbolFunction:
			r.result.Warnings.Add(sym.Pos, warnUnusedFunc, sym.Name)
		}
	}
	r.scope = r.scope.parent
}

func (r *Resolver) declareLocal(name string, kind SymbolKind, pos token.Position) *Symbol {
	sym, ok := r.scope.Define(name, kind, pos)
	if !ok {
		r.result.Warnings.Add(pos, warnRedeclared, name)
	}
	return sym
}

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case nil:
		return

	case *ast.Ident:
		r.resolveIdent(e)

	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		sym, outer, outerIn := r.lookup(e.Name)
		if sym == nil {
			// The VM creates the global on first assignment.
			sym, _ = r.result.Globals.Define(e.Name, SymbolGlobal, e.NamePos)
			if outer != nil {
				r.result.Warnings.Add(e.NamePos, warnOuterLocal, e.Name, ownerName(outerIn))
			}
		}
		sym.Assigned++
		if sym.Kind == SymbolHost && sym.Arity != NotCallable {
			r.result.Warnings.Add(e.NamePos, warnRebindsNative, e.Name)
		}
		r.result.Assigns[e] = sym

	default:
		for _, child := range ast.Children(expr) {
			r.resolveExpr(child.(ast.Expr))
		}
	}
}

func (r *Resolver) resolveIdent(id *ast.Ident) {
	sym, outer, outerIn := r.lookup(id.Name)
	if sym != nil {
		sym.Used = true
		r.result.Uses[id] = sym
		return
	}
	r.pending = append(r.pending, unresolved{ident: id, outer: outer, outerIn: outerIn})
}

// lookup searches the current function's scopes, then the globals. When
// the search crosses a function boundary it also reports a same-named
// local of an enclosing scope, which the VM would not see.
func (r *Resolver) lookup(name string) (sym, outer *Symbol, outerIn *SymbolTable) {
	s := r.scope
	for ; !s.IsGlobal(); s = s.Parent() {
		if sym := s.LookupLocal(name); sym != nil {
			return sym, nil, nil
		}
		if s.boundary {
			break
		}
	}

	if !s.IsGlobal() {
		for o := s.Parent(); !o.IsGlobal(); o = o.Parent() {
			if sym := o.LookupLocal(name); sym != nil {
				outer, outerIn = sym, o
				break
			}
		}
	}
	return r.result.Globals.LookupLocal(name), outer, outerIn
}

func (r *Resolver) finalize() {
	for _, u := range r.pending {
		if sym := r.result.Globals.LookupLocal(u.ident.Name); sym != nil {
			sym.Used = true
			r.result.Uses[u.ident] = sym
			continue
		}
		if u.outer != nil {
			r.result.Warnings.Add(u.ident.Pos(), warnOuterLocal, u.ident.Name, ownerName(u.outerIn))
			continue
		}
		r.result.Warnings.Add(u.ident.Pos(), warnUndefined, u.ident.Name)
	}
	r.pending = nil
}

// ownerName describes the function owning a scope for diagnostics.
func ownerName(st *SymbolTable) string {
	if st.fn == nil {
		return "the top-level block"
	}
	return fmt.Sprintf("function %q", st.fn.Name)
}
