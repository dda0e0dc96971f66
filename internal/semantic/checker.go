package semantic

import (
	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/token"
	"github.com/custos/custoscript/internal/types"
)

// Checker performs additional semantic validation after resolution.
// It flags operations whose outcome is already known from the source:
// calls with a wrong argument count, literals used as callees or as
// indexable values, and constructs the compiler rejects.
type Checker struct {
	result   *ResolveResult
	errors   ErrorList
	warnings WarningList
}

// Check performs semantic validation on a resolved program.
// This is called after Resolve(). Warnings are appended to result.
func Check(prog *ast.Program, result *ResolveResult) []error {
	c := &Checker{
		result: result,
	}

	c.checkStmts(prog.Decls)

	result.Warnings = append(result.Warnings, c.warnings...)
	result.Warnings.Sort()

	if len(c.errors) == 0 {
		return nil
	}

	c.errors.Sort()
	errs := make([]error, len(c.errors))
	for i, e := range c.errors {
		errs[i] = e
	}
	return errs
}

// Analyze resolves and checks prog. The returned result holds every
// error and warning; the error is non-nil when there is at least one
// error.
func Analyze(prog *ast.Program, host Host) (*ResolveResult, error) {
	result, _ := Resolve(prog, host)
	for _, err := range Check(prog, result) {
		result.Errors = append(result.Errors, err.(*Error))
	}
	result.Errors.Sort()
	return result, result.Errors.Err()
}

// checkStmts checks a statement list. Anything after a ret in the same
// list never runs.
func (c *Checker) checkStmts(stmts []ast.Stmt) {
	for i, stmt := range stmts {
		c.checkStmt(stmt)
		if _, ok := stmt.(*ast.RetStmt); ok && i+1 < len(stmts) {
			c.warnings.Add(stmts[i+1].Pos(), warnUnreachable)
			for _, rest := range stmts[i+1:] {
				c.checkStmt(rest)
			}
			return
		}
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		c.checkExpr(s.Value)

	case *ast.FuncDecl:
		if s.Body != nil {
			c.checkStmts(s.Body.Stmts)
		}

	case *ast.ExprStmt:
		c.checkExpr(s.Expr)

	case *ast.BlockStmt:
		c.checkStmts(s.Stmts)

	case *ast.IfStmt:
		c.checkExpr(s.Cond)
		if s.Then != nil {
			c.checkStmts(s.Then.Stmts)
		}
		if s.Else != nil {
			c.checkStmts(s.Else.Stmts)
		}

	case *ast.ForStmt:
		c.errors.Add(s.Pos(), errForLoop)
		c.checkExpr(s.Iterable)
		if s.Body != nil {
			c.checkStmts(s.Body.Stmts)
		}

	case *ast.RetStmt:
		c.checkExpr(s.Value)
	}
}

func (c *Checker) checkExpr(expr ast.Expr) {
	if expr == nil {
		return
	}
	ast.Walk(expr, func(n ast.Node) bool {
		switch e := n.(type) {
		case *ast.CallExpr:
			c.checkCall(e)
		case *ast.SubscriptExpr:
			c.checkSubscript(e)
		case *ast.BinaryExpr:
			if e.Op == token.DIV && isZero(e.Right) {
				c.warnings.Add(e.Right.Pos(), warnDivideByZero)
			}
		}
		return true
	})
}

func (c *Checker) checkCall(call *ast.CallExpr) {
	callee := unparen(call.Callee)
	if kind, ok := literalKind(callee); ok {
		c.errors.Add(callee.Pos(), errNotCallable, kind)
		return
	}

	id, ok := callee.(*ast.Ident)
	if !ok {
		return
	}
	sym := c.result.Uses[id]
	if sym == nil || !sym.Stable() {
		return
	}

	n := len(call.Args)
	switch sym.Kind {
	case SymbolFunction:
		if sym.Func != nil && sym.Func.Arity() != n {
			c.errors.Add(call.Pos(), errArity, sym.Name, sym.Func.Arity(), n)
		}
	case SymbolHost:
		switch {
		case sym.Arity == NotCallable:
			c.errors.Add(call.Pos(), errHostNotCallable, sym.Name)
		case sym.Arity > 0 && sym.Arity != n:
			c.errors.Add(call.Pos(), errArity, sym.Name, sym.Arity, n)
		}
	}
}

func (c *Checker) checkSubscript(sub *ast.SubscriptExpr) {
	if kind, ok := literalKind(unparen(sub.Value)); ok && kind != types.KindString && kind != types.KindArray {
		c.errors.Add(sub.Value.Pos(), errNotIndexable, kind)
	}
	if kind, ok := literalKind(unparen(sub.Index)); ok && kind != types.KindNumber {
		c.errors.Add(sub.Index.Pos(), errBadIndex, kind)
	}
}

// unparen strips grouping parentheses.
func unparen(e ast.Expr) ast.Expr {
	for {
		g, ok := e.(*ast.GroupExpr)
		if !ok {
			return e
		}
		e = g.Expr
	}
}

// literalKind returns the kind of value a literal evaluates to.
func literalKind(e ast.Expr) (types.Kind, bool) {
	switch e.(type) {
	case *ast.NumLit:
		return types.KindNumber, true
	case *ast.StrLit:
		return types.KindString, true
	case *ast.BoolLit:
		return types.KindBool, true
	case *ast.NoneLit:
		return types.KindNone, true
	case *ast.ArrayLit:
		return types.KindArray, true
	}
	return 0, false
}

func isZero(e ast.Expr) bool {
	n, ok := unparen(e).(*ast.NumLit)
	return ok && n.Value == 0
}
