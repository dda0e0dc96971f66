package parser

import (
	"strconv"
	"strings"

	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/lexer"
	"github.com/custos/custoscript/internal/token"
)

// Parser is a recursive descent parser for custoscript programs.
//
// A syntax error inside a declaration records a ParseError and unwinds to
// the nearest declaration loop, which resynchronizes and keeps going, so a
// single Parse reports every error it can find.
type Parser struct {
	lexer   *lexer.Lexer // Lexer instance
	lines   []string     // Source split into lines, for error reports
	tok     lexer.Token  // Current token
	prevTok lexer.Token  // Previous token (for end positions)
	errors  ErrorList    // Accumulated errors
	depth   int          // Depth of the tree being built
}

// MaxDepth bounds how deeply expressions and blocks may nest. Later stages
// walk the tree recursively, so deeper input is rejected here.
const MaxDepth = 2000

// bailout unwinds the parser to the enclosing declaration loop.
type bailout struct{}

// Parse parses a custoscript program from source code.
// Returns the AST, or an ErrorList with every syntax error found.
func Parse(src string) (*ast.Program, error) {
	p := newParser(src)
	prog := p.parseProgram()

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// ParseExpr parses a single expression. The REPL uses it to tell a bare
// expression from statements.
func ParseExpr(src string) (expr ast.Expr, err error) {
	p := newParser(src)

	func() {
		defer p.recoverDecl()
		expr = p.parseExpr()
		if p.tok.Type == token.DELIM {
			p.next()
		}
		if p.tok.Type != token.EOF {
			p.fail("unexpected token")
		}
	}()

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

func newParser(src string) *Parser {
	p := &Parser{
		lexer: lexer.NewFromString(src),
		lines: strings.Split(src, "\n"),
	}
	p.next() // Initialize first token
	return p
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

// next advances to the next token. Illegal tokens are reported and skipped.
func (p *Parser) next() {
	p.prevTok = p.tok
	for {
		p.tok = p.lexer.Scan()
		if p.tok.Type != token.ILLEGAL {
			return
		}
		p.errorAt(p.tok, p.tok.Value)
	}
}

// expect consumes a token of type typ, or fails with msg.
func (p *Parser) expect(typ token.Token, msg string) lexer.Token {
	tok := p.tok
	if tok.Type != typ {
		p.fail(msg)
	}
	p.next()
	return tok
}

// skipDelims skips delimiter tokens where line breaks are insignificant.
func (p *Parser) skipDelims() {
	for p.tok.Type == token.DELIM {
		p.next()
	}
}

// endStatement consumes the delimiter closing a statement. A statement
// directly followed by 'end', 'else' or end of file needs no delimiter.
func (p *Parser) endStatement() {
	switch p.tok.Type {
	case token.DELIM:
		p.next()
	case token.END, token.ELSE, token.EOF:
	default:
		p.fail("expected a ';' or a new line")
	}
}

// errorAt records a parse error underlining tok.
func (p *Parser) errorAt(tok lexer.Token, msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     tok.Pos,
		Width:   tok.Span().Width(),
		Message: msg,
		Line:    sourceLine(p.lines, tok.Pos.Line),
		AtEOF:   tok.Type == token.EOF,
	})
}

// fail records an error at the current token and unwinds the declaration.
func (p *Parser) fail(msg string) {
	p.errorAt(p.tok, msg)
	panic(bailout{})
}

// enter records one more level of nesting and fails past MaxDepth.
func (p *Parser) enter(what string) {
	p.depth++
	if p.depth > MaxDepth {
		p.fail(what + " nested too deeply")
	}
}

func (p *Parser) leave(n int) {
	p.depth -= n
}

// recoverDecl stops a bailout; any other panic is re-raised.
func (p *Parser) recoverDecl() {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
	}
}

// synchronize skips tokens until just after a delimiter or until a token
// that starts a declaration. It always consumes at least one token.
func (p *Parser) synchronize() {
	prev := p.tok.Type
	p.next()

	for p.tok.Type != token.EOF {
		if prev == token.DELIM || p.tok.Type.StartsDeclaration() {
			return
		}
		prev = p.tok.Type
		p.next()
	}
}

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

// parseProgram parses declarations until end of file.
func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{StartPos: p.tok.Pos}

	for p.tok.Type != token.EOF {
		if decl := p.parseDeclSafe(); decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}

	prog.EndPos = p.tok.End
	return prog
}

// parseDeclSafe parses one declaration, resynchronizing after an error.
func (p *Parser) parseDeclSafe() (decl ast.Stmt) {
	depth := p.depth
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.depth = depth
			p.synchronize()
			decl = nil
		}
	}()
	return p.parseDecl()
}

// parseDecl parses a declaration. It returns nil for an empty statement.
func (p *Parser) parseDecl() ast.Stmt {
	switch p.tok.Type {
	case token.FUNC:
		return p.parseFuncDecl()
	case token.VAR:
		return p.parseVarDecl()
	default:
		return p.parseStmt()
	}
}

// parseFuncDecl parses: func NAME [ ( [NAME {, NAME}] ) ] : block
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.expect(token.FUNC, "expected 'func'")
	name := p.expect(token.NAME, "expected an identifier")

	var params []ast.Param
	if p.tok.Type == token.LPAREN {
		p.next()
		p.skipDelims()
		seen := make(map[string]bool)
		for p.tok.Type != token.RPAREN {
			if len(params) > 0 {
				p.expect(token.COMMA, "expected ',' or ')'")
				p.skipDelims()
			}
			param := p.tok
			p.expect(token.NAME, "expected an identifier")
			if seen[param.Value] {
				p.errorAt(param, "duplicate parameter '"+param.Value+"'")
			}
			seen[param.Value] = true
			params = append(params, ast.Param{Name: param.Value, Pos: param.Pos})
			p.skipDelims()
		}
		p.expect(token.RPAREN, "expected a ')'")
	}

	colon := p.expect(token.COLON, "expected a ':'")
	body := p.parseBlock(colon.Pos)

	return &ast.FuncDecl{
		BaseStmt: ast.MakeBaseStmt(start.Pos, body.End()),
		Name:     name.Value,
		NamePos:  name.Pos,
		Params:   params,
		Body:     body,
	}
}

// parseVarDecl parses: var NAME = expr
func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.expect(token.VAR, "expected 'var'")
	name := p.expect(token.NAME, "expected an identifier")
	p.expect(token.ASSIGN, "expected '='")
	value := p.parseExpr()
	end := p.prevTok.End
	p.endStatement()

	return &ast.VarDecl{
		BaseStmt: ast.MakeBaseStmt(start.Pos, end),
		Name:     name.Value,
		NamePos:  name.Pos,
		Value:    value,
	}
}

// parseBlock parses declarations up to and including the closing 'end'.
// start is the position of the ':' that opened the block.
func (p *Parser) parseBlock(start token.Position) *ast.BlockStmt {
	p.enter("block")
	defer p.leave(1)

	var stmts []ast.Stmt
	for p.tok.Type != token.END && p.tok.Type != token.EOF {
		if stmt := p.parseDeclSafe(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	end := p.expect(token.END, "expected an 'end'")

	return &ast.BlockStmt{
		BaseStmt: ast.MakeBaseStmt(start, end.End),
		Stmts:    stmts,
	}
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

// parseStmt parses a statement. It returns nil for an empty statement.
func (p *Parser) parseStmt() ast.Stmt {
	switch p.tok.Type {
	case token.DELIM:
		p.next()
		return nil
	case token.COLON:
		colon := p.tok
		p.next()
		return p.parseBlock(colon.Pos)
	case token.RET:
		return p.parseRetStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.IF:
		return p.parseIfStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseIfStmt parses: if expr : block [ else : block ]
func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.expect(token.IF, "expected 'if'")
	cond := p.parseExpr()
	colon := p.expect(token.COLON, "expected a ':'")
	then := p.parseBlock(colon.Pos)

	stmt := &ast.IfStmt{
		BaseStmt: ast.MakeBaseStmt(start.Pos, then.End()),
		Cond:     cond,
		Then:     then,
	}

	p.skipDelims()
	if p.tok.Type == token.ELSE {
		p.next()
		colon := p.expect(token.COLON, "expected a ':'")
		stmt.Else = p.parseBlock(colon.Pos)
		stmt.EndPos = stmt.Else.End()
	}
	return stmt
}

// parseForStmt parses: for NAME in expr : block
func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.expect(token.FOR, "expected 'for'")
	name := p.expect(token.NAME, "expected an identifier")
	p.expect(token.IN, "expected 'in'")
	iterable := p.parseExpr()
	colon := p.expect(token.COLON, "expected a ':'")
	body := p.parseBlock(colon.Pos)

	return &ast.ForStmt{
		BaseStmt: ast.MakeBaseStmt(start.Pos, body.End()),
		Var:      name.Value,
		VarPos:   name.Pos,
		Iterable: iterable,
		Body:     body,
	}
}

// parseRetStmt parses: ret [expr]
func (p *Parser) parseRetStmt() *ast.RetStmt {
	start := p.expect(token.RET, "expected 'ret'")

	var value ast.Expr
	switch p.tok.Type {
	case token.DELIM, token.END, token.ELSE, token.EOF:
	default:
		value = p.parseExpr()
	}
	end := p.prevTok.End
	p.endStatement()

	return &ast.RetStmt{
		BaseStmt: ast.MakeBaseStmt(start.Pos, end),
		Value:    value,
	}
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	p.endStatement()
	return &ast.ExprStmt{
		BaseStmt: ast.MakeBaseStmt(expr.Pos(), expr.End()),
		Expr:     expr,
	}
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

func (p *Parser) parseExpr() ast.Expr {
	p.enter("expression")
	defer p.leave(1)
	return p.parseAssign()
}

// parseAssign parses right-associative assignment. The target must be a
// bare variable reference.
func (p *Parser) parseAssign() ast.Expr {
	expr := p.parseOr()
	if p.tok.Type != token.ASSIGN {
		return expr
	}

	if !ast.IsAssignable(expr) {
		p.errors = append(p.errors, &ParseError{
			Pos:     expr.Pos(),
			Width:   token.Span{Start: expr.Pos(), End: expr.End()}.Width(),
			Message: "invalid assignment target",
			Line:    sourceLine(p.lines, expr.Pos().Line),
		})
		panic(bailout{})
	}
	target := expr.(*ast.Ident)

	p.next()
	value := p.parseExpr()
	return &ast.AssignExpr{
		BaseExpr: ast.MakeBaseExpr(target.Pos(), value.End()),
		Name:     target.Name,
		NamePos:  target.Pos(),
		Value:    value,
	}
}

func (p *Parser) parseOr() ast.Expr {
	return p.parseLogical(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() ast.Expr {
	return p.parseLogical(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() ast.Expr {
	return p.parseBinaryLeft(p.parseComparison, token.EQUALS, token.NOT_EQUALS)
}

func (p *Parser) parseComparison() ast.Expr {
	return p.parseBinaryLeft(p.parseTerm, token.GREATER, token.GTE, token.LESS, token.LTE)
}

func (p *Parser) parseTerm() ast.Expr {
	return p.parseBinaryLeft(p.parseFactor, token.ADD, token.SUB)
}

func (p *Parser) parseFactor() ast.Expr {
	return p.parseBinaryLeft(p.parseUnary, token.MUL, token.DIV)
}

// parseUnary parses prefix '!' and '-'.
func (p *Parser) parseUnary() ast.Expr {
	if p.tok.Type == token.NOT || p.tok.Type == token.SUB {
		op := p.tok
		p.next()
		p.enter("expression")
		operand := p.parseUnary()
		p.leave(1)
		return &ast.UnaryExpr{
			BaseExpr: ast.MakeBaseExpr(op.Pos, operand.End()),
			Op:       op.Type,
			Expr:     operand,
		}
	}
	return p.parseCall()
}

// parseCall parses a primary followed by any number of call argument lists
// and subscripts, left to right.
func (p *Parser) parseCall() ast.Expr {
	expr := p.parsePrimary()
	n := 0
	defer func() { p.leave(n) }()

	for {
		switch p.tok.Type {
		case token.LPAREN:
			p.enter("expression")
			n++
			p.next()
			args := p.parseExprList(token.RPAREN)
			end := p.expect(token.RPAREN, "expected a ')'")
			expr = &ast.CallExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), end.End),
				Callee:   expr,
				Args:     args,
			}

		case token.LBRACKET:
			p.enter("expression")
			n++
			p.next()
			p.skipDelims()
			index := p.parseExpr()
			p.skipDelims()
			end := p.expect(token.RBRACKET, "expected a ']'")
			expr = &ast.SubscriptExpr{
				BaseExpr: ast.MakeBaseExpr(expr.Pos(), end.End),
				Value:    expr,
				Index:    index,
			}

		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.tok
	base := ast.MakeBaseExpr(tok.Pos, tok.End)

	switch tok.Type {
	case token.NUMBER:
		p.next()
		n, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.errorAt(tok, "invalid number '"+tok.Value+"'")
		}
		return &ast.NumLit{BaseExpr: base, Value: n, Raw: tok.Value}

	case token.STRING:
		p.next()
		return &ast.StrLit{BaseExpr: base, Value: tok.Value}

	case token.TRUE, token.FALSE:
		p.next()
		return &ast.BoolLit{BaseExpr: base, Value: tok.Type == token.TRUE}

	case token.NONE:
		p.next()
		return &ast.NoneLit{BaseExpr: base}

	case token.NAME:
		p.next()
		return &ast.Ident{BaseExpr: base, Name: tok.Value}

	case token.LPAREN:
		p.next()
		p.skipDelims()
		inner := p.parseExpr()
		p.skipDelims()
		end := p.expect(token.RPAREN, "expected a ')'")
		return &ast.GroupExpr{
			BaseExpr: ast.MakeBaseExpr(tok.Pos, end.End),
			Expr:     inner,
		}

	case token.LBRACKET:
		p.next()
		elems := p.parseExprList(token.RBRACKET)
		end := p.expect(token.RBRACKET, "expected a ']'")
		return &ast.ArrayLit{
			BaseExpr: ast.MakeBaseExpr(tok.Pos, end.End),
			Elems:    elems,
		}

	default:
		p.fail("unexpected token")
		return nil
	}
}

// parseBinaryLeft parses a left-associative chain of the given operators.
func (p *Parser) parseBinaryLeft(higher func() ast.Expr, ops ...token.Token) ast.Expr {
	expr := higher()
	n := 0
	defer func() { p.leave(n) }()

	for p.match(ops...) {
		p.enter("expression")
		n++
		op := p.tok.Type
		p.next()
		right := higher()
		expr = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// parseLogical is parseBinaryLeft for the short-circuit operators.
func (p *Parser) parseLogical(higher func() ast.Expr, op token.Token) ast.Expr {
	expr := higher()
	n := 0
	defer func() { p.leave(n) }()

	for p.tok.Type == op {
		p.enter("expression")
		n++
		p.next()
		right := higher()
		expr = &ast.LogicalExpr{
			BaseExpr: ast.MakeBaseExpr(expr.Pos(), right.End()),
			Left:     expr,
			Op:       op,
			Right:    right,
		}
	}
	return expr
}

// parseExprList parses comma-separated expressions up to (not including)
// the closing token. Line breaks inside the list are insignificant.
func (p *Parser) parseExprList(closing token.Token) []ast.Expr {
	var exprs []ast.Expr

	p.skipDelims()
	for p.tok.Type != closing {
		if len(exprs) > 0 {
			p.expect(token.COMMA, "expected ',' or '"+closing.String()+"'")
			p.skipDelims()
		}
		exprs = append(exprs, p.parseExpr())
		p.skipDelims()
	}
	return exprs
}

// match returns true if current token matches any of the given types.
func (p *Parser) match(types ...token.Token) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}
