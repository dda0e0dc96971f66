package ast

// Walk traverses an AST in depth-first order.
// For each node, it calls fn(node). If fn returns false,
// the children of that node are not visited.
//
// Example: Count all identifiers
//
//	count := 0
//	ast.Walk(program, func(n ast.Node) bool {
//	    if _, ok := n.(*ast.Ident); ok {
//	        count++
//	    }
//	    return true // continue traversal
//	})
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Children returns the direct children of node in source order.
// Absent optional children (a missing else branch, a bare ret) are omitted.
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil {
			out = append(out, n)
		}
	}

	switch n := node.(type) {
	case *Program:
		for _, d := range n.Decls {
			add(d)
		}

	// Expressions
	case *NumLit, *StrLit, *BoolLit, *NoneLit, *Ident:
		// no children

	case *ArrayLit:
		for _, e := range n.Elems {
			add(e)
		}

	case *SubscriptExpr:
		add(n.Value)
		add(n.Index)

	case *BinaryExpr:
		add(n.Left)
		add(n.Right)

	case *LogicalExpr:
		add(n.Left)
		add(n.Right)

	case *UnaryExpr:
		add(n.Expr)

	case *GroupExpr:
		add(n.Expr)

	case *AssignExpr:
		add(n.Value)

	case *CallExpr:
		add(n.Callee)
		for _, arg := range n.Args {
			add(arg)
		}

	// Statements
	case *VarDecl:
		add(n.Value)

	case *FuncDecl:
		if n.Body != nil {
			add(n.Body)
		}

	case *ExprStmt:
		add(n.Expr)

	case *BlockStmt:
		for _, s := range n.Stmts {
			add(s)
		}

	case *IfStmt:
		add(n.Cond)
		if n.Then != nil {
			add(n.Then)
		}
		if n.Else != nil {
			add(n.Else)
		}

	case *ForStmt:
		add(n.Iterable)
		if n.Body != nil {
			add(n.Body)
		}

	case *RetStmt:
		add(n.Value)
	}
	return out
}
