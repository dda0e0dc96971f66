package compiler

import (
	"fmt"

	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/token"
	"github.com/custos/custoscript/internal/types"
)

// CompileError represents a compilation error.
type CompileError struct {
	Pos     token.Position
	Message string
}

func (e *CompileError) Error() string {
	if e.Pos.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Compile lowers a parsed program into the top-level script function.
// Nested function declarations become Function constants inside the
// script's chunk (and, recursively, inside each other).
func Compile(prog *ast.Program) (script *Function, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
			} else {
				panic(r) // Re-panic for non-compile errors
			}
		}
	}()

	script = NewFunction("", 0, KindScript)
	c := newCompiler(NewVariableManager(), script)
	for _, decl := range prog.Decls {
		c.compileStmt(decl)
	}
	c.finish(prog.EndPos.Line)
	return script, nil
}

// compiler emits instructions into one function's chunk. Nested function
// declarations get their own compiler sharing the same VariableManager.
type compiler struct {
	vars *VariableManager
	fn   *Function
}

func newCompiler(vars *VariableManager, fn *Function) *compiler {
	return &compiler{vars: vars, fn: fn}
}

// emit appends an instruction attributed to node's line and returns its index.
func (c *compiler) emit(node ast.Node, ins Instruction) int {
	return c.fn.chunk.Write(ins, ast.Line(node))
}

func (c *compiler) op(node ast.Node, op Op) int {
	return c.emit(node, Instruction{Op: op})
}

func (c *compiler) constant(node ast.Node, v types.Value) int {
	return c.emit(node, Instruction{Op: Constant, Const: v})
}

// finish guarantees the chunk ends in Return.
func (c *compiler) finish(line int) {
	if last, ok := c.fn.chunk.Last(); ok && last.Op == Return {
		return
	}
	c.fn.chunk.Write(Instruction{Op: Constant, Const: types.None()}, line)
	c.fn.chunk.Write(Instruction{Op: Return}, line)
}

// jumpForward emits a forward jump with a placeholder offset and returns
// its position for patchForward.
func (c *compiler) jumpForward(node ast.Node, op Op) int {
	return c.emit(node, Instruction{Op: op})
}

// patchForward makes the jump at mark land on the next emitted instruction.
func (c *compiler) patchForward(mark int) {
	c.fn.chunk.Code[mark].Arg = c.fn.chunk.Len() - mark
}

func (c *compiler) fail(pos token.Position, format string, args ...any) {
	panic(&CompileError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// -----------------------------------------------------------------------------
// Statements
// -----------------------------------------------------------------------------

func (c *compiler) compileStmt(stmt ast.Stmt) {
	if stmt == nil {
		return
	}

	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.constant(s, types.None())
		}
		c.declare(s, s.Name)

	case *ast.FuncDecl:
		c.compileFuncDecl(s)

	case *ast.ExprStmt:
		c.compileExpr(s.Expr)
		c.op(s, Pop)

	case *ast.BlockStmt:
		c.compileBlock(s)

	case *ast.IfStmt:
		c.compileIfStmt(s)

	case *ast.ForStmt:
		c.fail(s.Pos(), "for-loops not supported")

	case *ast.RetStmt:
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.constant(s, types.None())
		}
		c.op(s, Return)

	default:
		c.fail(stmt.Pos(), "unexpected statement type: %T", stmt)
	}
}

// declare binds name to the value on top of the stack: a local slot inside
// any scope, a global at the top level.
func (c *compiler) declare(node ast.Node, name string) {
	if _, isLocal := c.vars.Declare(name); !isLocal {
		c.emit(node, Instruction{Op: DefineGlobal, Name: name})
	}
}

// compileBlock compiles a block in a fresh scope and pops its locals on exit.
func (c *compiler) compileBlock(block *ast.BlockStmt) {
	if block == nil {
		return
	}
	c.vars.BeginScope()
	for _, stmt := range block.Stmts {
		c.compileStmt(stmt)
	}
	n := c.vars.EndScope()
	for i := 0; i < n; i++ {
		c.fn.chunk.Write(Instruction{Op: Pop}, block.End().Line)
	}
}

func (c *compiler) compileFuncDecl(s *ast.FuncDecl) {
	fn := NewFunction(s.Name, len(s.Params), KindFunction)
	nested := newCompiler(c.vars, fn)

	c.vars.BeginFunction()
	for _, p := range s.Params {
		c.vars.Declare(p.Name)
	}
	// The body shares the function's scope: Return drops the whole window,
	// so its locals need no pops.
	if s.Body != nil {
		for _, stmt := range s.Body.Stmts {
			nested.compileStmt(stmt)
		}
	}
	nested.finish(s.End().Line)
	c.vars.EndFunction()

	c.constant(s, fn.Value())
	c.declare(s, s.Name)
}

// compileIfStmt lowers:
//
//	cond
//	JumpIfFalse else
//	Pop
//	then
//	Jump end
//	else: Pop
//	else-block
//	end:
func (c *compiler) compileIfStmt(s *ast.IfStmt) {
	c.compileExpr(s.Cond)
	ifMark := c.jumpForward(s, JumpIfFalse)
	c.op(s, Pop)
	c.compileBlock(s.Then)
	elseMark := c.jumpForward(s, Jump)
	c.patchForward(ifMark)
	c.op(s, Pop)
	if s.Else != nil {
		c.compileBlock(s.Else)
	}
	c.patchForward(elseMark)
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

func (c *compiler) compileExpr(expr ast.Expr) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.NumLit:
		c.constant(e, types.Number(e.Value))

	case *ast.StrLit:
		c.constant(e, types.String(e.Value))

	case *ast.BoolLit:
		c.constant(e, types.Bool(e.Value))

	case *ast.NoneLit:
		c.constant(e, types.None())

	case *ast.ArrayLit:
		for _, elem := range e.Elems {
			c.compileExpr(elem)
		}
		c.emit(e, Instruction{Op: ArrayLiteral, Arg: len(e.Elems)})

	case *ast.Ident:
		if slot, ok := c.vars.Resolve(e.Name); ok {
			c.emit(e, Instruction{Op: GetLocal, Arg: slot})
		} else {
			c.emit(e, Instruction{Op: GetGlobal, Name: e.Name})
		}

	case *ast.SubscriptExpr:
		c.compileExpr(e.Value)
		c.compileExpr(e.Index)
		c.op(e, IndexInto)

	case *ast.BinaryExpr:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.op(e, binaryOp(e))

	case *ast.LogicalExpr:
		c.compileLogicalExpr(e)

	case *ast.UnaryExpr:
		c.compileExpr(e.Expr)
		switch e.Op {
		case token.SUB:
			c.op(e, Negate)
		case token.NOT:
			c.op(e, Not)
		default:
			c.fail(e.Pos(), "unexpected unary operator %s", e.Op)
		}

	case *ast.GroupExpr:
		c.compileExpr(e.Expr)

	case *ast.AssignExpr:
		c.compileExpr(e.Value)
		if slot, ok := c.vars.Resolve(e.Name); ok {
			c.emit(e, Instruction{Op: SetLocal, Arg: slot})
		} else {
			c.emit(e, Instruction{Op: SetGlobal, Name: e.Name})
		}

	case *ast.CallExpr:
		c.compileExpr(e.Callee)
		for _, arg := range e.Args {
			c.compileExpr(arg)
		}
		c.emit(e, Instruction{Op: Call, Arg: len(e.Args)})

	default:
		c.fail(expr.Pos(), "unexpected expression type: %T", expr)
	}
}

func binaryOp(e *ast.BinaryExpr) Op {
	switch e.Op {
	case token.ADD:
		return Add
	case token.SUB:
		return Subtract
	case token.MUL:
		return Multiply
	case token.DIV:
		return Divide
	case token.EQUALS:
		return Equal
	case token.NOT_EQUALS:
		return NotEqual
	case token.GREATER:
		return Greater
	case token.GTE:
		return GreaterEq
	case token.LESS:
		return Lesser
	case token.LTE:
		return LesserEq
	}
	panic(&CompileError{Pos: e.Pos(), Message: fmt.Sprintf("unexpected binary operator %s", e.Op)})
}

// compileLogicalExpr lowers && and || to jumps. Both leave the deciding
// operand on the stack.
func (c *compiler) compileLogicalExpr(e *ast.LogicalExpr) {
	c.compileExpr(e.Left)
	switch e.Op {
	case token.AND:
		mark := c.jumpForward(e, JumpIfFalse)
		c.op(e, Pop)
		c.compileExpr(e.Right)
		c.patchForward(mark)

	case token.OR:
		elseMark := c.jumpForward(e, JumpIfFalse)
		endMark := c.jumpForward(e, Jump)
		c.patchForward(elseMark)
		c.op(e, Pop)
		c.compileExpr(e.Right)
		c.patchForward(endMark)

	default:
		c.fail(e.Pos(), "unexpected logical operator %s", e.Op)
	}
}
