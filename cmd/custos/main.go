// custos - custoscript interpreter
//
// Runs a script from the command line, a file or stdin, starts an
// interactive REPL, or serves eval commands over WebSocket.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/custos/custoscript"
	"github.com/custos/custoscript/internal/server"
)

// version is set at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shortUsage = "usage: custos [-d] [-da] [-lint] [-e entry] [-steps N] [-f progfile | 'prog'] [arg ...]"
	longUsage  = `Running scripts:
  -f progfile       load source from progfile (- for stdin)
  -e entry          call function entry after the top-level code
  -steps N          stop after N instructions (default: no limit)
  -stats            print run statistics to stderr

With no program, custos starts a REPL when stdin is a terminal and
otherwise reads the program from stdin. Remaining arguments are
returned by get_args().

Interactive:
  -repl             full-screen REPL
  -line             line-editing REPL

Eval server:
  -serve addr       serve !eval commands over WebSocket on addr
  -token t          require "Authorization: Bearer t" from clients
  -timeout d        per-command time limit (default: 5s)
  -workers N        commands run at once (default: number of CPUs)

Debugging arguments:
  -d                print parsed AST to stderr and exit
  -da               print bytecode assembly to stderr and exit
  -lint             report problems without running, exit 1 on errors

Other:
  -h, --help        show this help message
  -version          show custos version and exit
`
)

//nolint:gocyclo,funlen // CLI argument parsing is inherently complex
func main() {
	var progFile string
	entry := ""
	maxSteps := 0
	stats := false
	debug := false
	debugAsm := false
	lint := false
	replMode := ""
	serveAddr := ""
	token := ""
	timeout := server.DefaultTimeout
	workers := 0

	needArg := func(i int, flag string) string {
		if i+1 >= len(os.Args) {
			errorExitf("flag needs an argument: %s", flag)
		}
		return os.Args[i+1]
	}
	atoi := func(s, what string) int {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errorExitf("invalid %s: %s", what, s)
		}
		return n
	}

	var i int
	for i = 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if arg == "--" {
			i++
			break
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch arg {
		case "-f":
			progFile = needArg(i, arg)
			i++
		case "-e":
			entry = needArg(i, arg)
			i++
		case "-steps":
			maxSteps = atoi(needArg(i, arg), "step limit")
			i++
		case "-stats":
			stats = true
		case "-d":
			debug = true
		case "-da":
			debugAsm = true
		case "-lint":
			lint = true
		case "-repl":
			replMode = "tui"
		case "-line":
			replMode = "line"
		case "-serve":
			serveAddr = needArg(i, arg)
			i++
		case "-token":
			token = needArg(i, arg)
			i++
		case "-timeout":
			d, err := time.ParseDuration(needArg(i, arg))
			if err != nil || d <= 0 {
				errorExitf("invalid timeout: %s", os.Args[i+1])
			}
			timeout = d
			i++
		case "-workers":
			workers = atoi(needArg(i, arg), "number of workers")
			i++
		case "-h", "--help":
			fmt.Printf("custos %s - custoscript interpreter\n\n%s\n\n%s", version, shortUsage, longUsage)
			os.Exit(0)
		case "-version", "--version":
			fmt.Printf("custos version %s\n", version)
			fmt.Printf("  commit:   %s\n", commit)
			fmt.Printf("  built:    %s\n", date)
			fmt.Printf("  language: %s\n", custoscript.Version)
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-f") {
				progFile = arg[2:]
				continue
			}
			errorExitf("flag provided but not defined: %s", arg)
		}
	}

	args := os.Args[i:]

	if serveAddr != "" {
		os.Exit(serve(server.Config{
			Addr:     serveAddr,
			Entry:    entry,
			Token:    token,
			Timeout:  timeout,
			MaxSteps: maxSteps,
			Workers:  workers,
			Stdlib:   true,
		}))
	}

	if replMode == "" && progFile == "" && len(args) == 0 && isatty.IsTerminal(os.Stdin.Fd()) {
		replMode = "line"
		if isatty.IsTerminal(os.Stdout.Fd()) {
			replMode = "tui"
		}
	}
	switch replMode {
	case "tui":
		if err := runREPL(args); err != nil {
			errorExit(err)
		}
		os.Exit(0)
	case "line":
		os.Exit(runLineREPL(args))
	}

	var program string
	switch {
	case progFile == "-" || (progFile == "" && len(args) == 0):
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			errorExitf("cannot read program from stdin: %v", err)
		}
		program = string(content)
	case progFile != "":
		content, err := os.ReadFile(progFile)
		if err != nil {
			errorExitf("cannot read program file %s: %v", progFile, err)
		}
		program = string(content)
	default:
		program = args[0]
		args = args[1:]
	}

	config := &custoscript.Config{
		Args:     args,
		Entry:    entry,
		Stdlib:   true,
		MaxSteps: maxSteps,
	}

	if lint {
		os.Exit(runLint(program, config))
	}

	prog, err := custoscript.Compile(program)
	if err != nil {
		errorExit(err)
	}

	if debug {
		fmt.Fprint(os.Stderr, prog.DumpAST())
		os.Exit(0)
	}
	if debugAsm {
		fmt.Fprintln(os.Stderr, prog.Disassemble())
		os.Exit(0)
	}

	stdout := bufio.NewWriter(os.Stdout)
	config.Output = stdout

	start := time.Now()
	res, err := prog.Run(config)
	elapsed := time.Since(start)
	if err != nil {
		stdout.Flush()
		errorExit(err)
	}
	if !res.Value.IsNone() {
		fmt.Fprintln(stdout, res.Value.Repr())
	}
	stdout.Flush()

	if stats {
		printStats(os.Stderr, prog, res, elapsed)
	}
}

// runLint prints lint results for program and returns the exit code.
func runLint(program string, config *custoscript.Config) int {
	errs, warns, err := custoscript.Check(program, config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, w := range warns {
		fmt.Fprintln(os.Stderr, w)
	}
	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}
	if len(errs) > 0 {
		return 1
	}
	return 0
}

func printStats(w io.Writer, prog *custoscript.Program, res *custoscript.Result, elapsed time.Duration) {
	fmt.Fprintf(w, "source:       %s\n", humanize.Bytes(uint64(len(prog.Source()))))
	fmt.Fprintf(w, "functions:    %s\n", humanize.Comma(int64(len(prog.Functions()))))
	fmt.Fprintf(w, "instructions: %s\n", humanize.Comma(int64(prog.Instructions())))
	fmt.Fprintf(w, "steps:        %s\n", humanize.Comma(int64(res.Steps)))
	fmt.Fprintf(w, "elapsed:      %s\n", elapsed)
}

// serve runs the eval server until SIGINT or SIGTERM.
func serve(config server.Config) int {
	config.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := server.New(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if err != nil {
			fmt.Fprintf(os.Stderr, "custos: %v\n", err)
			return 1
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "custos: %v\n", err)
		return 1
	}
	return 0
}

// errorExitf prints formatted error message and exits with code 1
func errorExitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "custos: "+format+"\n", args...)
	os.Exit(1)
}

// errorExit prints error and exits with code 1
func errorExit(err error) {
	fmt.Fprintf(os.Stderr, "custos: %v\n", err)
	os.Exit(1)
}
