package ast

import "github.com/custos/custoscript/internal/token"

// Program represents a complete custoscript source file: an ordered list of
// top-level declarations and statements.
type Program struct {
	// Top-level declarations in source order.
	Decls []Stmt

	StartPos token.Position
	EndPos   token.Position
}

// Pos returns the position of the first token in the program.
func (p *Program) Pos() token.Position { return p.StartPos }

// End returns the position after the last token in the program.
func (p *Program) End() token.Position { return p.EndPos }

var _ Node = (*Program)(nil)
