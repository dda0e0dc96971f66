package main

import (
	"reflect"
	"strings"
	"testing"

	"github.com/custos/custoscript"
)

func TestSessionEval(t *testing.T) {
	s := newSession([]string{"a", "b"})

	steps := []struct {
		input string
		want  string
	}{
		{"1 + 2", "3"},
		{"var greeting = \"hi\"", "none"},
		{"greeting", `"hi"`},
		{"func double(n): ret n * 2 end", "none"},
		{"double(21)", "42"},
		{"_ + 1", "43"},
		{"count = 5", "5"},
		{"count", "5"},
		{"print(greeting, count)", "hi 5"},
		{"get_args()", `["a", "b"]`},
	}

	for _, step := range steps {
		got, err := s.eval(step.input)
		if err != nil {
			t.Fatalf("eval(%q): %v", step.input, err)
		}
		if got != step.want {
			t.Errorf("eval(%q) = %q, want %q", step.input, got, step.want)
		}
	}
}

func TestSessionEvalErrors(t *testing.T) {
	s := newSession(nil)

	if _, err := s.eval("var = 1"); err == nil {
		t.Error("expected a parse error")
	}
	_, err := s.eval("missing + 1")
	if err == nil || !strings.Contains(err.Error(), "no global with name 'missing'") {
		t.Errorf("err = %v", err)
	}

	if _, err := s.eval("x = 1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.eval("x / 0"); err == nil {
		t.Error("expected a runtime error")
	}
	if got, _ := s.eval("x"); got != "1" {
		t.Errorf("x = %q after a failed input, want 1", got)
	}
}

func TestSessionEqualityKeepsVariable(t *testing.T) {
	s := newSession(nil)
	s.env["a"] = custoscript.Number(5)

	if got, err := s.eval("a == 5"); err != nil || got != "true" {
		t.Fatalf("eval = %q, %v", got, err)
	}
	if got := s.env["a"].Repr(); got != "5" {
		t.Errorf("a = %s, want 5", got)
	}
}

func TestSessionNativesNotStored(t *testing.T) {
	s := newSession(nil)
	if _, err := s.eval("1"); err != nil {
		t.Fatal(err)
	}
	for _, name := range s.names() {
		if _, ok := s.env[name].AsNative(); ok {
			t.Errorf("native %q stored in the session", name)
		}
	}
}

func TestSessionReset(t *testing.T) {
	s := newSession(nil)
	if _, err := s.eval("var v = 1"); err != nil {
		t.Fatal(err)
	}
	if got := s.names(); !reflect.DeepEqual(got, []string{"v"}) {
		t.Fatalf("names() = %v", got)
	}
	s.reset()
	if len(s.names()) != 0 {
		t.Errorf("names() after reset = %v", s.names())
	}
	if _, err := s.eval("v"); err == nil {
		t.Error("v should be gone after reset")
	}
}

func TestSessionComplete(t *testing.T) {
	s := newSession(nil)
	s.env["fruit"] = custoscript.String("apple")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", nil},
		{"fu", []string{"func"}},
		{"fi", []string{"find", "find_all"}},
		{"fr", []string{"fruit"}},
		{"zz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			if got := s.complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("complete(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCompleteLine(t *testing.T) {
	s := newSession(nil)
	got := s.completeLine("x = le")
	if !reflect.DeepEqual(got, []string{"x = len"}) {
		t.Errorf("completeLine = %v", got)
	}
	if got := s.completeLine("print("); len(got) != 0 {
		t.Errorf("completeLine after '(' = %v", got)
	}
}
