package ast

import "github.com/custos/custoscript/internal/token"

// -----------------------------------------------------------------------------
// Literals
// -----------------------------------------------------------------------------

// NumLit represents a numeric literal.
// Examples: 42, 3.14
type NumLit struct {
	BaseExpr
	Value float64 // Parsed numeric value
	Raw   string  // Original source text
}

// StrLit represents a string literal.
// Examples: "hello", "world\n"
type StrLit struct {
	BaseExpr
	Value string // Unescaped string value
}

// BoolLit represents true or false.
type BoolLit struct {
	BaseExpr
	Value bool
}

// NoneLit represents the none literal.
type NoneLit struct {
	BaseExpr
}

// ArrayLit represents an array literal.
// Example: [1, "two", none]
type ArrayLit struct {
	BaseExpr
	Elems []Expr // Elements in source order (may be empty)
}

// -----------------------------------------------------------------------------
// References
// -----------------------------------------------------------------------------

// Ident represents a variable reference.
type Ident struct {
	BaseExpr
	Name string
}

// SubscriptExpr represents indexing into a string or array.
// Examples: s[0], args()[1]
type SubscriptExpr struct {
	BaseExpr
	Value Expr // Value being indexed
	Index Expr // Index expression
}

// -----------------------------------------------------------------------------
// Operations
// -----------------------------------------------------------------------------

// BinaryExpr represents an arithmetic or comparison operation.
// Examples: a + b, x == y, n <= 10
type BinaryExpr struct {
	BaseExpr
	Left  Expr        // Left operand
	Op    token.Token // Operator token
	Right Expr        // Right operand
}

// LogicalExpr represents a short-circuiting && or || operation.
type LogicalExpr struct {
	BaseExpr
	Left  Expr
	Op    token.Token // AND or OR
	Right Expr
}

// UnaryExpr represents a prefix operation.
// Examples: -x, !flag
type UnaryExpr struct {
	BaseExpr
	Op   token.Token // SUB or NOT
	Expr Expr        // Operand
}

// GroupExpr represents a parenthesized expression.
// Example: (a + b)
type GroupExpr struct {
	BaseExpr
	Expr Expr // Inner expression
}

// AssignExpr represents an assignment expression. Assignment yields the
// assigned value, so x = y = 1 assigns both.
type AssignExpr struct {
	BaseExpr
	Name    string         // Target variable
	NamePos token.Position // Position of the target
	Value   Expr           // Value expression
}

// -----------------------------------------------------------------------------
// Calls
// -----------------------------------------------------------------------------

// CallExpr represents a call of any callable value.
// Examples: add(1, 2), make()(), args[0](x)
type CallExpr struct {
	BaseExpr
	Callee Expr   // Expression producing the callee
	Args   []Expr // Arguments (may be empty)
}

// Ensure all expression types implement Expr interface.
var (
	_ Expr = (*NumLit)(nil)
	_ Expr = (*StrLit)(nil)
	_ Expr = (*BoolLit)(nil)
	_ Expr = (*NoneLit)(nil)
	_ Expr = (*ArrayLit)(nil)
	_ Expr = (*Ident)(nil)
	_ Expr = (*SubscriptExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*LogicalExpr)(nil)
	_ Expr = (*UnaryExpr)(nil)
	_ Expr = (*GroupExpr)(nil)
	_ Expr = (*AssignExpr)(nil)
	_ Expr = (*CallExpr)(nil)
)
