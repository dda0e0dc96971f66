package main

import (
	"sort"
	"strings"

	"github.com/custos/custoscript"
	"github.com/custos/custoscript/internal/parser"
	"github.com/custos/custoscript/internal/runtime"
	"github.com/custos/custoscript/internal/token"
)

// session evaluates REPL inputs one after another. Each input is its own
// program; the globals it leaves behind are seeded into the next one.
type session struct {
	args []string
	env  map[string]custoscript.Value
}

func newSession(args []string) *session {
	return &session{
		args: args,
		env:  make(map[string]custoscript.Value),
	}
}

// eval runs input and returns what it printed followed by its value. A
// lone expression is returned as the value; statements yield none, which
// is left out when something was printed.
func (s *session) eval(input string) (string, error) {
	src := input
	if _, err := parser.ParseExpr(input); err == nil {
		src = "ret " + input
	}

	prog, err := custoscript.Compile(src)
	if err != nil {
		return "", err
	}
	res, err := prog.Run(&custoscript.Config{
		Args:    s.args,
		Globals: s.env,
		Stdlib:  true,
	})
	if err != nil {
		return "", err
	}

	for name, v := range res.Globals {
		// Natives are registered afresh for every input.
		if _, ok := v.AsNative(); ok {
			continue
		}
		s.env[name] = v
	}
	if !res.Value.IsNone() {
		s.env["_"] = res.Value
	}

	if res.Value.IsNone() && res.Output != "" {
		return strings.TrimSuffix(res.Output, "\n"), nil
	}
	return res.Output + res.Value.Repr(), nil
}

func (s *session) reset() {
	s.env = make(map[string]custoscript.Value)
}

// names returns the session's global names, sorted.
func (s *session) names() []string {
	names := make([]string, 0, len(s.env))
	for name := range s.env {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	keywords = token.Keywords()
	natives  = nativeNames()
)

func nativeNames() []string {
	names := []string{"get_args"}
	for _, n := range runtime.NewStdlib(nil).Natives() {
		names = append(names, n.Name())
	}
	sort.Strings(names)
	return names
}

// complete returns the keywords, natives and globals starting with prefix.
func (s *session) complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	var out []string
	for _, group := range [][]string{keywords, natives, s.names()} {
		for _, w := range group {
			if strings.HasPrefix(w, prefix) {
				out = append(out, w)
			}
		}
	}
	return out
}
