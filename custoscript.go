package custoscript

import (
	"github.com/custos/custoscript/internal/compiler"
	"github.com/custos/custoscript/internal/parser"
	"github.com/custos/custoscript/internal/runtime"
	"github.com/custos/custoscript/internal/semantic"
	"github.com/custos/custoscript/internal/types"
)

// Version is the custoscript version string.
const Version = "0.1.0"

// Run compiles and executes a script.
// This is a convenience function for one-off execution.
// For repeated execution of the same program, use Compile followed by Program.Run.
//
// Example:
//
//	res, err := custoscript.Run(`ret "a" + "b"`, nil)
//	// res.Value.String() == "ab"
func Run(src string, config *Config) (*Result, error) {
	prog, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return prog.Run(config)
}

// Compile parses and compiles a script for execution.
// The returned Program can be executed many times, concurrently.
//
// Example:
//
//	prog, err := custoscript.Compile("func main: ret 42 end")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, _ := prog.Run(&custoscript.Config{Entry: "main"})
func Compile(src string) (*Program, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, convertParseError(err)
	}

	script, err := compiler.Compile(tree)
	if err != nil {
		return nil, convertCompileError(err)
	}

	return &Program{
		script: script,
		tree:   tree,
		source: src,
	}, nil
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies initialization of global program variables.
func MustCompile(src string) *Program {
	prog, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return prog
}

// Check parses src and reports problems found without running it: errors
// for code certain to fail, warnings for suspicious code. The names config
// would define (natives, globals, get_args, the standard library) count as
// defined. A syntax error is returned as err.
func Check(src string, config *Config) ([]*LintError, []*Warning, error) {
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, nil, convertParseError(err)
	}
	result, _ := semantic.Analyze(tree, hostSymbols(config))
	errs, warns := convertLint(result)
	return errs, warns, nil
}

// hostSymbols describes the globals a run with config defines before the
// script starts.
func hostSymbols(config *Config) semantic.Host {
	host := semantic.Host{argsNative: 0}
	if config == nil {
		return host
	}
	if config.Stdlib {
		for _, n := range runtime.NewStdlib(nil).Natives() {
			host[n.Name()] = n.Arity()
		}
	}
	for name, v := range config.Globals {
		host[name] = valueArity(v)
	}
	for _, n := range config.Natives {
		host[n.Name()] = n.Arity()
	}
	return host
}

func valueArity(v Value) int {
	switch v.Kind() {
	case types.KindNative:
		n, _ := v.AsNative()
		return n.Arity()
	case types.KindFunction:
		c, _ := v.AsCallable()
		return c.Arity()
	default:
		return semantic.NotCallable
	}
}
