package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/custos/custoscript"
	"github.com/custos/custoscript/internal/parser"
)

const (
	historyFile = ".custos_history"
	promptMain  = "custos> "
	promptCont  = "...     "
)

// runLineREPL is the plain line-editing REPL, used when the terminal
// cannot host the full-screen one or -line is given.
func runLineREPL(args []string) int {
	fmt.Printf("custoscript %s, type :quit to exit\n", custoscript.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := newSession(args)
	ln.SetCompleter(s.completeLine)

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}

		if strings.HasPrefix(code, ":") {
			switch strings.ToLower(code) {
			case ":quit", ":q":
				return 0
			case ":reset", ":r":
				s.reset()
			case ":vars", ":v":
				for _, name := range s.names() {
					fmt.Printf("%s = %s\n", name, s.env[name].Repr())
				}
			default:
				fmt.Println("unknown command, try :vars, :reset or :quit")
			}
			continue
		}

		out, err := s.eval(code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Println(out)
	}

	return 0
}

// readByParseProbe reads lines until they parse, or fail for a reason
// other than running out of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := parser.Parse(src); perr != nil && parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// completeLine completes the identifier at the end of line.
func (s *session) completeLine(line string) []string {
	i := strings.LastIndexFunc(line, func(r rune) bool { return !isIdentRune(r) })
	head, word := line[:i+1], line[i+1:]
	matches := s.complete(word)
	out := make([]string, len(matches))
	for j, m := range matches {
		out[j] = head + m
	}
	return out
}
