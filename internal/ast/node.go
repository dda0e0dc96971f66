// Package ast defines the abstract syntax tree for custoscript programs.
//
// The tree is strictly owned: every node owns its children and no node is
// shared between parents. Every node records the span of source it was
// parsed from so later stages can attribute errors and bytecode to lines.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce values
//	│   ├── NumLit, StrLit, BoolLit, NoneLit, ArrayLit - literals
//	│   ├── Ident, SubscriptExpr - references
//	│   ├── BinaryExpr, LogicalExpr, UnaryExpr, GroupExpr - operations
//	│   └── CallExpr, AssignExpr - calls and assignment
//	├── Stmt (interface) - declarations and statements
//	│   ├── VarDecl, FuncDecl - declarations
//	│   ├── ExprStmt, BlockStmt, IfStmt, ForStmt, RetStmt - statements
//	└── Program - top-level list of declarations
package ast

import "github.com/custos/custoscript/internal/token"

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first character belonging to this node.
	Pos() token.Position

	// End returns the position of the first character immediately after this node.
	End() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode() // marker method to prevent external implementations
}

// Stmt is the interface for declarations and statements.
type Stmt interface {
	Node
	stmtNode() // marker method to prevent external implementations
}

// BaseExpr provides common fields for all expression nodes.
type BaseExpr struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) End() token.Position { return b.EndPos }
func (b *BaseExpr) exprNode()           {}

// BaseStmt provides common fields for all statement nodes.
type BaseStmt struct {
	StartPos token.Position // Position of first token
	EndPos   token.Position // Position after last token
}

func (b *BaseStmt) Pos() token.Position { return b.StartPos }
func (b *BaseStmt) End() token.Position { return b.EndPos }
func (b *BaseStmt) stmtNode()           {}

// IsAssignable reports whether e may appear on the left of '='.
// Only bare variable references are assignable.
func IsAssignable(e Expr) bool {
	_, ok := e.(*Ident)
	return ok
}

// Line returns the source line a node starts on.
func Line(n Node) int {
	if n == nil {
		return 0
	}
	return n.Pos().Line
}

// MakeBaseExpr creates a BaseExpr with the given positions.
func MakeBaseExpr(start, end token.Position) BaseExpr {
	return BaseExpr{StartPos: start, EndPos: end}
}

// MakeBaseStmt creates a BaseStmt with the given positions.
func MakeBaseStmt(start, end token.Position) BaseStmt {
	return BaseStmt{StartPos: start, EndPos: end}
}
