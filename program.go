package custoscript

import (
	"bytes"
	"context"
	"io"
	"sort"

	"github.com/custos/custoscript/internal/ast"
	"github.com/custos/custoscript/internal/compiler"
	"github.com/custos/custoscript/internal/runtime"
	"github.com/custos/custoscript/internal/semantic"
	"github.com/custos/custoscript/internal/types"
	"github.com/custos/custoscript/internal/vm"
)

// argsNative is the name of the native returning Config.Args.
const argsNative = "get_args"

// Program represents a compiled script ready for execution.
// It is safe for concurrent use; each call to Run creates an
// independent VM.
type Program struct {
	script *compiler.Function
	tree   *ast.Program
	source string // Original source for debugging
}

// Result is the outcome of a successful run.
type Result struct {
	// Value is what the script returned with a top-level ret (none when
	// it ran to the end), or the Entry function's return value.
	Value Value

	// Output holds what print wrote when Config.Output was nil.
	Output string

	// Steps is the number of instructions executed.
	Steps int

	// Globals holds every global when the run ended, natives included.
	Globals map[string]Value
}

// Run executes the program with the given configuration.
// If config is nil, default configuration is used.
func (p *Program) Run(config *Config) (*Result, error) {
	job, out := p.job(config)
	return finish(vm.Execute(job), out)
}

// RunContext is like Run but returns ctx.Err() as soon as ctx is done.
// The VM cannot be interrupted mid-instruction, so a run outliving ctx is
// left to finish in the background; set Config.MaxSteps to bound it.
func (p *Program) RunContext(ctx context.Context, config *Config) (*Result, error) {
	job, out := p.job(config)

	done := make(chan vm.JobResult, 1)
	go func() {
		done <- vm.Execute(job)
	}()

	select {
	case res := <-done:
		return finish(res, out)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Check reports problems found in the program without running it. See
// the package-level Check.
func (p *Program) Check(config *Config) ([]*LintError, []*Warning) {
	result, _ := semantic.Analyze(p.tree, hostSymbols(config))
	return convertLint(result)
}

// Disassemble returns a human-readable representation of the compiled
// bytecode, the script first and then every function it declares.
func (p *Program) Disassemble() string {
	return p.script.Disassemble()
}

// DumpAST returns the parsed syntax tree in indented form.
func (p *Program) DumpAST() string {
	return ast.String(p.tree)
}

// Functions returns the names of the functions declared in the program,
// nested ones included, sorted.
func (p *Program) Functions() []string {
	var names []string
	for _, fn := range p.script.Functions() {
		if fn.Kind() == compiler.KindFunction {
			names = append(names, fn.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Instructions returns the number of bytecode instructions in the
// program, across all of its functions.
func (p *Program) Instructions() int {
	n := 0
	for _, fn := range p.script.Functions() {
		n += fn.Chunk().Len()
	}
	return n
}

// Source returns the original source code.
func (p *Program) Source() string {
	return p.source
}

// job builds the VM job for one run. When config.Output is nil the
// returned buffer collects printed text.
func (p *Program) job(config *Config) (vm.Job, *bytes.Buffer) {
	if config == nil {
		config = &Config{}
	}
	cfg := *config
	cfg.applyDefaults()

	var out io.Writer = cfg.Output
	var buf *bytes.Buffer
	if out == nil {
		buf = &bytes.Buffer{}
		out = buf
	}

	return vm.Job{
		Script: p.script,
		Config: cfg.vmConfig(),
		Entry:  cfg.Entry,
		Setup: func(m *vm.VM) {
			configureVM(m, &cfg, out)
		},
	}, buf
}

// configureVM registers natives and seeds globals. Later registrations
// win: the standard library, then get_args, then seeded globals, then the
// host natives.
func configureVM(m *vm.VM, config *Config, out io.Writer) {
	if config.Stdlib {
		for _, n := range runtime.NewStdlib(out).Natives() {
			m.DefineNative(n)
		}
	}

	args := config.Args
	m.DefineNative(types.NewNative(argsNative, 0, func([]types.Value) types.Value {
		return types.Strings(args)
	}))

	for name, v := range config.Globals {
		m.SetGlobal(name, v)
	}
	for _, n := range config.Natives {
		m.DefineNative(n)
	}
}

func finish(res vm.JobResult, out *bytes.Buffer) (*Result, error) {
	if res.Err != nil {
		return nil, convertRuntimeError(res.Err)
	}
	r := &Result{Value: res.Value, Steps: res.Steps, Globals: res.Globals}
	if out != nil {
		r.Output = out.String()
	}
	return r, nil
}
