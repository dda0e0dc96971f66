package custoscript_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/custos/custoscript"
)

func double() *custoscript.Native {
	return custoscript.NewNative("double", 1, func(args []custoscript.Value) custoscript.Value {
		n, ok := args[0].AsNumber()
		if !ok {
			return custoscript.None()
		}
		return custoscript.Number(n * 2)
	})
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		config *custoscript.Config
		want   string // Repr of the result value
		output string
	}{
		{
			name: "arithmetic",
			src:  "ret 1 + 2 * 3",
			want: "7",
		},
		{
			name: "string concatenation",
			src:  `ret "a" + "b"`,
			want: `"ab"`,
		},
		{
			name: "globals",
			src:  "var x = 2\nx = x * 3\nret x",
			want: "6",
		},
		{
			name: "no ret",
			src:  "var x = 1",
			want: "none",
		},
		{
			name: "function call",
			src:  "func add(a, b): ret a + b end\nret add(2, 3)",
			want: "5",
		},
		{
			name:   "args",
			src:    "ret get_args()[1]",
			config: &custoscript.Config{Args: []string{"a", "b"}},
			want:   `"b"`,
		},
		{
			name: "no args",
			src:  "ret get_args()",
			want: "[]",
		},
		{
			name:   "seeded global",
			src:    "ret limit + 1",
			config: &custoscript.Config{Globals: map[string]custoscript.Value{"limit": custoscript.Number(2)}},
			want:   "3",
		},
		{
			name:   "native",
			src:    "ret double(21)",
			config: &custoscript.Config{Natives: []*custoscript.Native{double()}},
			want:   "42",
		},
		{
			name:   "entry",
			src:    "var greeting = \"hi\"\nfunc main: ret greeting + \"!\" end",
			config: &custoscript.Config{Entry: "main"},
			want:   `"hi!"`,
		},
		{
			name:   "stdlib print",
			src:    "print(\"hi\", 1)\nprint(len(\"abc\"))",
			config: &custoscript.Config{Stdlib: true},
			want:   "none",
			output: "hi 1\n3\n",
		},
		{
			name:   "stdlib regex",
			src:    `ret find("[0-9]+", "ab12")`,
			config: &custoscript.Config{Stdlib: true},
			want:   `"12"`,
		},
		{
			name: "native overrides stdlib",
			src:  `ret len("abc")`,
			config: &custoscript.Config{
				Stdlib: true,
				Natives: []*custoscript.Native{custoscript.NewNative("len", 1, func([]custoscript.Value) custoscript.Value {
					return custoscript.Number(-1)
				})},
			},
			want: "-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := custoscript.Run(tt.src, tt.config)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := res.Value.Repr(); got != tt.want {
				t.Errorf("value = %s, want %s", got, tt.want)
			}
			if res.Output != tt.output {
				t.Errorf("output = %q, want %q", res.Output, tt.output)
			}
			if res.Steps == 0 {
				t.Error("Steps = 0")
			}
		})
	}
}

func TestRunOutputWriter(t *testing.T) {
	var out bytes.Buffer
	res, err := custoscript.Run(`print("x")`, &custoscript.Config{Stdlib: true, Output: &out})
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "x\n" {
		t.Errorf("writer got %q", out.String())
	}
	if res.Output != "" {
		t.Errorf("Result.Output = %q, want empty when a writer is set", res.Output)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := custoscript.Compile("var = 1\nvar = 2")

	var perrs custoscript.ParseErrors
	if !errors.As(err, &perrs) {
		t.Fatalf("error %T is not ParseErrors: %v", err, err)
	}
	if len(perrs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(perrs), err)
	}
	if perrs[0].Line != 1 || perrs[1].Line != 2 {
		t.Errorf("lines = %d, %d", perrs[0].Line, perrs[1].Line)
	}
	if perrs[0].Message == "" {
		t.Error("empty message")
	}
	if !strings.HasPrefix(err.Error(), "1:5 ") {
		t.Errorf("Error() = %q, want it to start with the position", err.Error())
	}
}

func TestCompileError(t *testing.T) {
	_, err := custoscript.Compile("var a = 1\nfor x in [1]: a = x end")

	var ce *custoscript.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not CompileError: %v", err, err)
	}
	if ce.Line != 2 || ce.Column != 1 || ce.Message != "for-loops not supported" {
		t.Errorf("CompileError = %+v", ce)
	}
	if err.Error() != "2:1 for-loops not supported" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestRuntimeError(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
		text string
	}{
		{"division", "var z = 0\nret 1 / z", custoscript.ErrDivisionByZero,
			"vm error: cannot divide a number by zero at line 2 on instruction 'Divide'"},
		{"undefined", "ret nope", custoscript.ErrUndefinedGlobal,
			"vm error: no global with name 'nope' exists at line 1 on instruction 'GetGlobal(nope)'"},
		{"arity", "func f(a): ret a end\nf()", custoscript.ErrArityMismatch,
			"vm error: function 'f' accepts 1 arguments but 0 were provided at line 2 on instruction 'Call(0)'"},
		{"not callable", "var x = 1\nx()", custoscript.ErrNotCallable, ""},
		{"operand", `ret 1 - "a"`, custoscript.ErrInvalidOperand, ""},
		{"not indexable", "var n = 1\nret n[0]", custoscript.ErrNotIndexable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := custoscript.Run(tt.src, nil)
			var re *custoscript.RuntimeError
			if !errors.As(err, &re) {
				t.Fatalf("error %T is not RuntimeError: %v", err, err)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.kind)
			}
			if tt.text != "" && err.Error() != tt.text {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.text)
			}
			if re.Line == 0 || re.Message == "" || re.Instruction == "" {
				t.Errorf("incomplete RuntimeError: %+v", re)
			}
		})
	}
}

func TestLimits(t *testing.T) {
	prog := custoscript.MustCompile("func f: ret f() end\nf()")

	_, err := prog.Run(&custoscript.Config{MaxSteps: 100})
	if !errors.Is(err, custoscript.ErrStepLimit) {
		t.Errorf("MaxSteps: got %v, want step limit", err)
	}

	_, err = prog.Run(&custoscript.Config{MaxFrames: 10})
	if !errors.Is(err, custoscript.ErrStackOverflow) {
		t.Errorf("MaxFrames: got %v, want stack overflow", err)
	}

	_, err = prog.Run(nil)
	if !errors.Is(err, custoscript.ErrStackOverflow) {
		t.Errorf("default: got %v, want stack overflow", err)
	}
}

func TestRunContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	block := custoscript.NewNative("block", 0, func([]custoscript.Value) custoscript.Value {
		<-release
		return custoscript.None()
	})
	prog := custoscript.MustCompile("block()")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := prog.RunContext(ctx, &custoscript.Config{Natives: []*custoscript.Native{block}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunContext = %v, want deadline exceeded", err)
	}

	res, err := custoscript.MustCompile("ret 5").RunContext(context.Background(), nil)
	if err != nil || res.Value.Repr() != "5" {
		t.Errorf("RunContext = %v, %v", res, err)
	}

	_, err = custoscript.MustCompile("ret 1 / 0").RunContext(context.Background(), nil)
	if !errors.Is(err, custoscript.ErrDivisionByZero) {
		t.Errorf("RunContext error = %v", err)
	}
}

func TestProgramConcurrentRuns(t *testing.T) {
	prog := custoscript.MustCompile("var total = 0\nfunc add(n): total = total + n end\nadd(num(get_args()[0]))\nret total")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := prog.Run(&custoscript.Config{Args: []string{fmt.Sprint(i)}, Stdlib: true})
			if err != nil {
				t.Errorf("run %d: %v", i, err)
				return
			}
			if got, _ := res.Value.AsNumber(); got != float64(i) {
				t.Errorf("run %d returned %v", i, res.Value)
			}
		}(i)
	}
	wg.Wait()
}

func TestPool(t *testing.T) {
	pool := custoscript.NewPool(custoscript.PoolConfig{Workers: 2})
	prog := custoscript.MustCompile("ret double(num(get_args()[0]))")

	for i := 0; i < 5; i++ {
		res, err := pool.Run(context.Background(), prog, &custoscript.Config{
			Args:    []string{fmt.Sprint(i)},
			Natives: []*custoscript.Native{double()},
			Stdlib:  true,
		})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if got, _ := res.Value.AsNumber(); got != float64(2*i) {
			t.Errorf("run %d = %v", i, res.Value)
		}
	}

	_, err := pool.Run(context.Background(), custoscript.MustCompile("ret nope"), nil)
	if !errors.Is(err, custoscript.ErrUndefinedGlobal) {
		t.Errorf("pool run error = %v", err)
	}

	pool.Close()
	pool.Close()
	if _, err := pool.Run(context.Background(), prog, nil); !errors.Is(err, custoscript.ErrPoolClosed) {
		t.Errorf("after Close: %v", err)
	}
}

func TestProgramIntrospection(t *testing.T) {
	src := "func b: ret 1 end\nfunc a:\n  func inner: ret 2 end\n  ret inner()\nend"
	prog := custoscript.MustCompile(src)

	if got := strings.Join(prog.Functions(), ","); got != "a,b,inner" {
		t.Errorf("Functions() = %s", got)
	}
	if prog.Source() != src {
		t.Error("Source() mismatch")
	}

	dis := prog.Disassemble()
	for _, want := range []string{"=== <script> ===", "=== a/0 ===", "=== inner/0 ===", "DefineGlobal(b)"} {
		if !strings.Contains(dis, want) {
			t.Errorf("Disassemble() missing %q:\n%s", want, dis)
		}
	}
	if prog.Instructions() < 10 {
		t.Errorf("Instructions() = %d", prog.Instructions())
	}
	if prog.DumpAST() == "" {
		t.Error("DumpAST() is empty")
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	custoscript.MustCompile("ret (")
}

func TestCheck(t *testing.T) {
	send := custoscript.NewNative("send", 1, func([]custoscript.Value) custoscript.Value { return custoscript.None() })
	config := &custoscript.Config{Natives: []*custoscript.Native{send}}

	errs, warns, err := custoscript.Check("send(1, 2)\nsend(missing)\nsend(get_args())", config)
	if err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].Line != 1 {
		t.Errorf("errors = %v", errs)
	} else if errs[0].Error() != "1:1: function 'send' accepts 1 arguments but 2 were provided" {
		t.Errorf("error = %q", errs[0].Error())
	}
	if len(warns) != 1 || warns[0].String() != "2:6: warning: undefined name \"missing\"" {
		t.Errorf("warnings = %v", warns)
	}

	_, warns, _ = custoscript.Check(`print(len("a"))`, nil)
	if len(warns) != 2 {
		t.Errorf("without stdlib, want 2 undefined warnings, got %v", warns)
	}
	_, warns, _ = custoscript.Check(`print(len("a"))`, &custoscript.Config{Stdlib: true})
	if len(warns) != 0 {
		t.Errorf("with stdlib, want no warnings, got %v", warns)
	}

	_, warns, _ = custoscript.Check("ret limit", &custoscript.Config{Globals: map[string]custoscript.Value{"limit": custoscript.Number(1)}})
	if len(warns) != 0 {
		t.Errorf("seeded global reported: %v", warns)
	}

	if _, _, err := custoscript.Check("var = 1", nil); err == nil {
		t.Error("expected a parse error")
	}

	errs, _ = custoscript.MustCompile("func f: ret 1 end\nf(1)").Check(nil)
	if len(errs) != 1 {
		t.Errorf("Program.Check errors = %v", errs)
	}
}

func ExampleRun() {
	res, err := custoscript.Run(`
func greet(name):
  ret "hello, " + name
end
ret greet(get_args()[0])
`, &custoscript.Config{Args: []string{"world"}})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(res.Value)
	// Output: hello, world
}
