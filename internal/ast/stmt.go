package ast

import "github.com/custos/custoscript/internal/token"

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

// VarDecl represents a variable declaration.
// Example: var x = 1
type VarDecl struct {
	BaseStmt
	Name    string
	NamePos token.Position
	Value   Expr
}

// Param is a function parameter.
type Param struct {
	Name string
	Pos  token.Position
}

// FuncDecl represents a function declaration.
// Examples:
//   - func main: ... end
//   - func add(a, b): ret a + b; end
type FuncDecl struct {
	BaseStmt
	Name    string
	NamePos token.Position
	Params  []Param
	Body    *BlockStmt
}

// ParamNames returns the parameter names in declaration order.
func (f *FuncDecl) ParamNames() []string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return names
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// ExprStmt represents an expression used as a statement.
// Examples: send("hi"), x = 2
type ExprStmt struct {
	BaseStmt
	Expr Expr // Expression to evaluate
}

// BlockStmt represents a block of declarations closed by 'end'.
// Blocks introduce a new local scope.
type BlockStmt struct {
	BaseStmt
	Stmts []Stmt // Statements in the block (may be empty)
}

// IfStmt represents an if or if-else statement.
// Examples:
//   - if x > 1: ... end
//   - if x: ... end else: ... end
type IfStmt struct {
	BaseStmt
	Cond Expr       // Condition expression
	Then *BlockStmt // Then branch
	Else *BlockStmt // Else branch (nil if no else)
}

// ForStmt represents a for-in loop.
// Example: for item in items: ... end
type ForStmt struct {
	BaseStmt
	Var      string
	VarPos   token.Position
	Iterable Expr
	Body     *BlockStmt
}

// RetStmt represents a return statement.
// Example: ret x + 1
type RetStmt struct {
	BaseStmt
	Value Expr // Return value (nil for bare ret)
}

// Ensure all statement types implement Stmt interface.
var (
	_ Stmt = (*VarDecl)(nil)
	_ Stmt = (*FuncDecl)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*BlockStmt)(nil)
	_ Stmt = (*IfStmt)(nil)
	_ Stmt = (*ForStmt)(nil)
	_ Stmt = (*RetStmt)(nil)
)
