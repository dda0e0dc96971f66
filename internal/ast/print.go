package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer renders AST nodes back to custoscript source form.
// Output is normalised: every statement ends with a newline, blocks are
// indented, and parentheses appear only where the source had a GroupExpr.
type Printer struct {
	w      io.Writer
	indent int
	err    error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes a pretty-printed representation of the node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) writeIndent() {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, strings.Repeat("    ", p.indent))
}

func (p *Printer) printNode(node Node) {
	switch n := node.(type) {
	case nil:
		p.printf("<nil>")
	case *Program:
		for _, d := range n.Decls {
			p.printStmt(d)
		}
	case Expr:
		p.printExpr(n)
	case Stmt:
		p.printStmt(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printExpr(e Expr) {
	if e == nil {
		p.printf("<nil>")
		return
	}

	switch n := e.(type) {
	case *NumLit:
		if n.Raw != "" {
			p.printf("%s", n.Raw)
		} else {
			p.printf("%s", strconv.FormatFloat(n.Value, 'f', -1, 64))
		}

	case *StrLit:
		p.printf("%s", quote(n.Value))

	case *BoolLit:
		p.printf("%t", n.Value)

	case *NoneLit:
		p.printf("none")

	case *ArrayLit:
		p.printf("[")
		p.printArgs(n.Elems)
		p.printf("]")

	case *Ident:
		p.printf("%s", n.Name)

	case *SubscriptExpr:
		p.printExpr(n.Value)
		p.printf("[")
		p.printExpr(n.Index)
		p.printf("]")

	case *BinaryExpr:
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right)

	case *LogicalExpr:
		p.printExpr(n.Left)
		p.printf(" %s ", n.Op)
		p.printExpr(n.Right)

	case *UnaryExpr:
		p.printf("%s", n.Op)
		p.printExpr(n.Expr)

	case *GroupExpr:
		p.printf("(")
		p.printExpr(n.Expr)
		p.printf(")")

	case *AssignExpr:
		p.printf("%s = ", n.Name)
		p.printExpr(n.Value)

	case *CallExpr:
		p.printExpr(n.Callee)
		p.printf("(")
		p.printArgs(n.Args)
		p.printf(")")

	default:
		p.printf("<%T>", e)
	}
}

func (p *Printer) printArgs(args []Expr) {
	for i, arg := range args {
		if i > 0 {
			p.printf(", ")
		}
		p.printExpr(arg)
	}
}

// printStmt writes one indented statement followed by a newline.
func (p *Printer) printStmt(s Stmt) {
	p.writeIndent()

	switch n := s.(type) {
	case nil:
		p.printf("<nil>\n")

	case *VarDecl:
		p.printf("var %s = ", n.Name)
		p.printExpr(n.Value)
		p.printf("\n")

	case *FuncDecl:
		p.printf("func %s", n.Name)
		if len(n.Params) > 0 {
			p.printf("(%s)", strings.Join(n.ParamNames(), ", "))
		}
		p.printf(":")
		p.printBody(n.Body)

	case *ExprStmt:
		p.printExpr(n.Expr)
		p.printf("\n")

	case *BlockStmt:
		p.printf(":")
		p.printBody(n)

	case *IfStmt:
		p.printf("if ")
		p.printExpr(n.Cond)
		p.printf(":")
		if n.Else == nil {
			p.printBody(n.Then)
			return
		}
		p.printBlock(n.Then)
		p.printf(" else:")
		p.printBody(n.Else)

	case *ForStmt:
		p.printf("for %s in ", n.Var)
		p.printExpr(n.Iterable)
		p.printf(":")
		p.printBody(n.Body)

	case *RetStmt:
		p.printf("ret")
		if n.Value != nil {
			p.printf(" ")
			p.printExpr(n.Value)
		}
		p.printf("\n")

	default:
		p.printf("<%T>\n", s)
	}
}

// printBody writes a block's statements and its closing "end" line.
func (p *Printer) printBody(b *BlockStmt) {
	p.printBlock(b)
	p.printf("\n")
}

// printBlock is printBody without the trailing newline after "end".
func (p *Printer) printBlock(b *BlockStmt) {
	p.printf("\n")
	p.indent++
	if b != nil {
		for _, stmt := range b.Stmts {
			p.printStmt(stmt)
		}
	}
	p.indent--
	p.writeIndent()
	p.printf("end")
}

// String returns the source form of the node.
func String(node Node) string {
	var sb strings.Builder
	p := NewPrinter(&sb)
	_ = p.Print(node)
	return sb.String()
}

// quote renders s as a custoscript string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
