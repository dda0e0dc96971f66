// Package custoscript provides an embeddable scripting language for chat
// bots and other hosts that run short, untrusted snippets.
//
// Source goes through a tokenizer, a recursive descent parser and a
// single-pass compiler to bytecode, which runs on a stack-based virtual
// machine with call frames, a globals table and host-defined natives.
//
// # Quick Start
//
// For simple one-off execution:
//
//	res, err := custoscript.Run(`ret 1 + 2`, nil)
//	// res.Value is the number 3
//
// With host natives and arguments:
//
//	send := custoscript.NewNative("send", 1, func(args []custoscript.Value) custoscript.Value {
//	    fmt.Println(args[0])
//	    return custoscript.None()
//	})
//	res, err := custoscript.Run(`send(get_args()[0])`, &custoscript.Config{
//	    Args:    []string{"hello"},
//	    Natives: []*custoscript.Native{send},
//	})
//
// # Compiled Programs
//
// For repeated execution of the same program:
//
//	prog, err := custoscript.Compile(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, args := range batches {
//	    res, err := prog.Run(&custoscript.Config{Args: args, Entry: "main"})
//	    // ...
//	}
//
// # Configuration
//
// The [Config] type controls a run:
//   - Host natives and pre-seeded globals
//   - Arguments returned by get_args()
//   - The optional standard library (print, len, regex natives, ...)
//   - Step and call depth limits
//
// # Error Handling
//
// Errors are returned as specific types for detailed handling:
//   - [ParseErrors]: every syntax error in the source
//   - [CompileError]: the first construct the compiler cannot translate
//   - [RuntimeError]: the error that stopped the VM
//
// [RuntimeError] unwraps to one of the Err* kinds, so errors.Is works:
//
//	if errors.Is(err, custoscript.ErrDivisionByZero) { ... }
//
// # Thread Safety
//
// Compiled [Program] objects are safe for concurrent use.
// Each call to [Program.Run] creates an independent VM. A [Pool] bounds how
// many scripts run at once.
package custoscript
