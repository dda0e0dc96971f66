package semantic

import (
	"strings"
	"testing"

	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/parser"
	"github.com/custos/custoscript/internal/token"
)

var testHost = Host{
	"send":     1,
	"print":    0,
	"get_args": 0,
	"limit":    NotCallable,
}

// Helper to parse and analyze
func analyzeCode(t *testing.T, code string) (*ResolveResult, error) {
	t.Helper()
	prog, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return Analyze(prog, testHost)
}

// Helper to check for expected error
func expectError(t *testing.T, code string, errSubstr string) {
	t.Helper()
	_, err := analyzeCode(t, code)
	if err == nil {
		t.Errorf("expected error containing %q, got no error", errSubstr)
		return
	}
	if !strings.Contains(err.Error(), errSubstr) {
		t.Errorf("expected error containing %q, got: %v", errSubstr, err)
	}
}

// Helper to check for an expected warning and no errors
func expectWarning(t *testing.T, code string, warnSubstr string) {
	t.Helper()
	result, err := analyzeCode(t, code)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w.String(), warnSubstr) {
			return
		}
	}
	t.Errorf("expected warning containing %q, got: %v", warnSubstr, warningStrings(result.Warnings))
}

// Helper to check no errors and no warnings
func expectClean(t *testing.T, code string) *ResolveResult {
	t.Helper()
	result, err := analyzeCode(t, code)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(result.Warnings) > 0 {
		t.Errorf("unexpected warnings: %v", warningStrings(result.Warnings))
	}
	return result
}

func warningStrings(wl WarningList) []string {
	out := make([]string, len(wl))
	for i, w := range wl {
		out[i] = w.String()
	}
	return out
}

func TestCleanPrograms(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"globals", "var a = 1\nvar b = a + 2\nsend(b)"},
		{"late bound global", "func show: send(later) end\nvar later = 1\nshow()"},
		{"assignment creates global", "func set: count = 1 end\nset()\nsend(count)"},
		{"recursion", "func fact(n):\n  if n <= 1: ret 1 end\n  ret n * fact(n - 1)\nend\nsend(fact(5))"},
		{"locals", "func f(a):\n  var b = a * 2\n  ret b\nend\nf(1)"},
		{"block locals", "if true:\n  var x = 1\n  send(x)\nend"},
		{"nested function", "func outer:\n  func inner: ret 1 end\n  ret inner()\nend\nouter()"},
		{"variadic native", "print()\nprint(1, 2, 3)"},
		{"host value", "send(limit + 1)"},
		{"shadowing", "var x = 1\nfunc f(x): ret x end\nsend(f(x))"},
		{"index", "var s = \"abc\"\nsend(s[1])\nsend([1, 2][0])"},
		{"logical", "var a = true && false || !true\nsend(a)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectClean(t, tt.code)
		})
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		err  string
	}{
		{"for loop", "for x in [1]: send(x) end", "1:1: for-loops are not supported"},
		{"script arity", "func add(a, b): ret a + b end\nadd(1)", "2:1: function 'add' accepts 2 arguments but 1 were provided"},
		{"native arity", "send(1, 2)", "function 'send' accepts 1 arguments but 2 were provided"},
		{"host value call", "limit()", "cannot call 'limit', the host defines it as a value"},
		{"number callee", "1()", "cannot call a non-function, got a number"},
		{"grouped string callee", "(\"f\")(1)", "cannot call a non-function, got a string"},
		{"index number", "send(5[0])", "can only index into a string or array, got: number"},
		{"index none", "send(none[0])", "can only index into a string or array, got: none"},
		{"string index", "send([1][\"a\"])", "invalid index, expected a number but got a string"},
		{"nested arity", "func outer:\n  func inner(a): ret a end\n  ret inner()\nend\nouter()", "function 'inner' accepts 1 arguments but 0 were provided"},
		{"arity in else", "func f: ret 1 end\nif true: f() end else: f(2) end", "accepts 0 arguments but 1 were provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, tt.code, tt.err)
		})
	}
}

func TestArityNotCheckedForRebound(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"reassigned", "func f(a): ret a end\nf = send\nf(1, 2)"},
		{"redeclared", "func f(a): ret a end\nfunc f(a, b): ret a end\nf(1, 2)"},
		{"assigned from function", "func f(a): ret a end\nfunc g: f = none end\nf(1, 2)"},
		{"native rebound", "func send(a, b): ret a end\nsend(1, 2)"},
		{"native assigned", "send = print\nsend(1, 2)"},
		{"computed callee", "var fs = [send]\nfs[0](1, 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzeCode(t, tt.code)
			if err != nil && strings.Contains(err.Error(), "arguments") {
				t.Errorf("unexpected arity error: %v", err)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name string
		code string
		warn string
	}{
		{"undefined", "send(missing)", "1:6: warning: undefined name \"missing\""},
		{"unused local", "func f:\n  var x = 1\n  ret 2\nend\nf()", "2:7: warning: variable \"x\" is declared but never used"},
		{"unused block local", "if true: var y = 1 end", "variable \"y\" is declared but never used"},
		{"unused nested function", "func outer:\n  func inner: ret 1 end\n  ret 2\nend\nouter()", "function \"inner\" is declared but never used"},
		{"redeclared local", "func f:\n  var a = 1\n  var a = 2\n  ret a\nend\nf()", "3:7: warning: variable \"a\" redeclared in this scope"},
		{"outer local read", "func outer(x):\n  func inner: ret x end\n  ret inner()\nend\nouter(1)", "\"x\" is a local of function \"outer\", which nested functions cannot see"},
		{"outer local write", "func outer(x):\n  func inner: x = 2 end\n  inner()\n  ret x\nend\nouter(1)", "\"x\" is a local of function \"outer\""},
		{"top-level block local", "if true:\n  var x = 1\n  func f: ret x end\n  send(x)\n  f()\nend", "local of the top-level block"},
		{"unreachable", "func f:\n  ret 1\n  send(2)\nend\nf()", "3:3: warning: unreachable code after ret"},
		{"division by zero", "send(1 / 0)", "warning: division by zero"},
		{"division by grouped zero", "send(1 / (0))", "division by zero"},
		{"rebinds native", "var send = 1", "\"send\" rebinds a host function"},
		{"assigns native", "print = 1", "\"print\" rebinds a host function"},
		{"nested recursion", "func outer:\n  func inner(n): ret inner(n) end\n  ret inner(1)\nend\nouter()", "undefined name \"inner\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectWarning(t, tt.code, tt.warn)
		})
	}
}

// The parser rejects duplicate parameters; trees built by hand can still
// carry them.
func TestDuplicateParam(t *testing.T) {
	fn := &ast.FuncDecl{
		Name: "f",
		Params: []ast.Param{
			{Name: "a", Pos: token.Position{Line: 1, Column: 8}},
			{Name: "a", Pos: token.Position{Line: 1, Column: 11}},
		},
		Body: &ast.BlockStmt{},
	}
	prog := &ast.Program{Decls: []ast.Stmt{fn}}

	_, err := Resolve(prog, nil)
	if err == nil || err.Error() != "1:11: duplicate parameter \"a\" in function \"f\"" {
		t.Errorf("Resolve error = %v", err)
	}
}

func TestSeededValueNotRebound(t *testing.T) {
	result := expectClean(t, "var limit = 3\nsend(limit)")
	if sym := result.Globals.LookupLocal("limit"); sym == nil || sym.Kind != SymbolHost {
		t.Errorf("limit = %+v, want host symbol", sym)
	}
}

func TestResolveBindings(t *testing.T) {
	prog, err := parser.Parse("var g = 1\nfunc f(p):\n  var l = p + g\n  ret l\nend\nsend(f(2))")
	if err != nil {
		t.Fatal(err)
	}
	result, err := Resolve(prog, testHost)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	kinds := make(map[string]SymbolKind)
	ast.Walk(prog, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			sym := result.Uses[id]
			if sym == nil {
				t.Errorf("%s at %s is unbound", id.Name, id.Pos())
				return true
			}
			kinds[id.Name] = sym.Kind
		}
		return true
	})

	want := map[string]SymbolKind{
		"p":    SymbolParam,
		"g":    SymbolGlobal,
		"l":    SymbolLocal,
		"f":    SymbolFunction,
		"send": SymbolHost,
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Errorf("%s resolved to %v, want %v", name, kinds[name], kind)
		}
	}

	if len(result.Functions) != 1 || result.Functions[0].Name != "f" || result.Functions[0].Arity() != 1 {
		t.Errorf("Functions = %+v", result.Functions)
	}
	if result.Functions[0].Parent != nil {
		t.Error("top-level function should have no parent")
	}
}

func TestAssignBindings(t *testing.T) {
	prog, err := parser.Parse("func f(a):\n  a = 1\n  total = a\nend\nf(0)")
	if err != nil {
		t.Fatal(err)
	}
	result, _ := Resolve(prog, nil)

	got := make(map[string]SymbolKind)
	for assign, sym := range result.Assigns {
		got[assign.Name] = sym.Kind
	}
	if got["a"] != SymbolParam {
		t.Errorf("a assigned as %v, want param", got["a"])
	}
	if got["total"] != SymbolGlobal {
		t.Errorf("total assigned as %v, want global", got["total"])
	}
	if sym := result.Globals.LookupLocal("total"); sym == nil || sym.Assigned != 1 {
		t.Errorf("total = %+v, want a global assigned once", sym)
	}
}

func TestNestedFunctionParent(t *testing.T) {
	result := expectClean(t, "func outer:\n  func inner: ret 1 end\n  ret inner()\nend\nouter()")
	if len(result.Functions) != 2 {
		t.Fatalf("Functions = %d, want 2", len(result.Functions))
	}
	inner := result.Functions[1]
	if inner.Name != "inner" || inner.Parent == nil || inner.Parent.Name != "outer" {
		t.Errorf("inner = %+v", inner)
	}
	if result.Globals.LookupLocal("inner") != nil {
		t.Error("nested function must not be global")
	}
}

func TestDiagnosticsSorted(t *testing.T) {
	result, err := analyzeCode(t, "send(b)\nsend(a)\nfor x in []: 1 end\nsend(1, 2)")
	if err == nil {
		t.Fatal("expected errors")
	}
	for i := 1; i < len(result.Warnings); i++ {
		if result.Warnings[i].Pos.Before(result.Warnings[i-1].Pos) {
			t.Errorf("warnings out of order: %v", warningStrings(result.Warnings))
		}
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2", result.Errors)
	}
	if result.Errors[0].Pos.Line != 3 || result.Errors[1].Pos.Line != 4 {
		t.Errorf("errors out of order: %v", result.Errors)
	}
	if !strings.Contains(err.Error(), "\n") {
		t.Errorf("ErrorList.Error() should join lines, got %q", err.Error())
	}
}

func TestSymbolTable(t *testing.T) {
	global := NewSymbolTable(nil, "global")
	if !global.IsGlobal() || global.Name() != "global" || global.Parent() != nil {
		t.Error("root table should be global")
	}

	pos := token.Position{Line: 1, Column: 5}
	sym, ok := global.Define("x", SymbolGlobal, pos)
	if !ok || sym.Pos != pos || sym.Arity != NotCallable {
		t.Fatalf("Define = %+v, %v", sym, ok)
	}
	again, ok := global.Define("x", SymbolLocal, token.Position{Line: 2, Column: 1})
	if ok || again != sym || !sym.Rebound || sym.Stable() {
		t.Errorf("redefinition should return the first symbol marked rebound")
	}

	block := NewSymbolTable(global, "block")
	block.Define("y", SymbolLocal, pos)
	if block.Parent() != global || block.IsGlobal() {
		t.Error("block should be a child of the global table")
	}
	if block.LookupLocal("x") != nil {
		t.Error("LookupLocal should not reach the parent scope")
	}
	if global.LookupLocal("y") != nil {
		t.Error("parent must not see child symbols")
	}

	block.Define("a", SymbolParam, pos)
	names := []string{}
	for _, s := range block.Symbols() {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "a,y" || block.Len() != 2 {
		t.Errorf("Symbols() = %v", names)
	}
}

func TestSymbolKindString(t *testing.T) {
	tests := map[SymbolKind]string{
		SymbolGlobal:   "global",
		SymbolLocal:    "local",
		SymbolParam:    "param",
		SymbolFunction: "function",
		SymbolHost:     "host",
		SymbolKind(99): "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}
