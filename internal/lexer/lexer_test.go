package lexer

import (
	"testing"

	"github.com/custos/custoscript/internal/token"
)

func scanAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewFromString(input)
	var toks []Token
	for i := 0; i < 1000; i++ {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
	t.Fatalf("lexer did not reach EOF for %q", input)
	return nil
}

func types(toks []Token) []token.Token {
	out := make([]token.Token, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestScanBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []token.Token
	}{
		{"+", []token.Token{token.ADD, token.EOF}},
		{"-", []token.Token{token.SUB, token.EOF}},
		{"*", []token.Token{token.MUL, token.EOF}},
		{"/", []token.Token{token.DIV, token.EOF}},
		{"=", []token.Token{token.ASSIGN, token.EOF}},
		{"==", []token.Token{token.EQUALS, token.EOF}},
		{"!=", []token.Token{token.NOT_EQUALS, token.EOF}},
		{"<", []token.Token{token.LESS, token.EOF}},
		{"<=", []token.Token{token.LTE, token.EOF}},
		{">", []token.Token{token.GREATER, token.EOF}},
		{">=", []token.Token{token.GTE, token.EOF}},
		{"!", []token.Token{token.NOT, token.EOF}},
		{"&&", []token.Token{token.AND, token.EOF}},
		{"||", []token.Token{token.OR, token.EOF}},
		{"(", []token.Token{token.LPAREN, token.EOF}},
		{")", []token.Token{token.RPAREN, token.DELIM, token.EOF}},
		{"[", []token.Token{token.LBRACKET, token.EOF}},
		{"]", []token.Token{token.RBRACKET, token.DELIM, token.EOF}},
		{",", []token.Token{token.COMMA, token.EOF}},
		{":", []token.Token{token.COLON, token.EOF}},
		{";", []token.Token{token.DELIM, token.EOF}},
		{"", []token.Token{token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewFromString(tt.input)
			for i, exp := range tt.expected {
				tok := l.Scan()
				if tok.Type != exp {
					t.Errorf("token[%d]: expected %v, got %v", i, exp, tok.Type)
				}
			}
		})
	}
}

func TestScanKeywords(t *testing.T) {
	tests := []struct {
		input    string
		expected token.Token
	}{
		{"func", token.FUNC},
		{"var", token.VAR},
		{"for", token.FOR},
		{"in", token.IN},
		{"if", token.IF},
		{"else", token.ELSE},
		{"ret", token.RET},
		{"end", token.END},
		{"true", token.TRUE},
		{"false", token.FALSE},
		{"none", token.NONE},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewFromString(tt.input)
			tok := l.Scan()
			if tok.Type != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tok.Type)
			}
			if tok.Value != tt.input {
				t.Errorf("expected value %q, got %q", tt.input, tok.Value)
			}
		})
	}
}

func TestScanIdentifiers(t *testing.T) {
	tests := []string{"x", "foo", "_bar", "x123", "CamelCase", "snake_case", "funcs", "ending", "имя"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			tok := NewFromString(input).Scan()
			if tok.Type != token.NAME {
				t.Errorf("expected NAME, got %v", tok.Type)
			}
			if tok.Value != input {
				t.Errorf("expected %q, got %q", input, tok.Value)
			}
		})
	}
}

func TestScanNumbers(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"0", []string{"0"}},
		{"123", []string{"123"}},
		{"3.14", []string{"3.14"}},
		{"10.0", []string{"10.0"}},
		// A trailing dot is not part of the number.
		{"1.", []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := NewFromString(tt.input)
			for _, want := range tt.expected {
				tok := l.Scan()
				if tok.Type != token.NUMBER {
					t.Fatalf("expected NUMBER for %q, got %v", tt.input, tok.Type)
				}
				if tok.Value != want {
					t.Errorf("expected %q, got %q", want, tok.Value)
				}
			}
		})
	}
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"hello"`, "hello"},
		{`"hello world"`, "hello world"},
		{`""`, ""},
		{`"with\nnewline"`, "with\nnewline"},
		{`"with\ttab"`, "with\ttab"},
		{`"with\\backslash"`, "with\\backslash"},
		{`"with\"quote"`, "with\"quote"},
		{`"with\rcarriage"`, "with\rcarriage"},
		{`"nul\0"`, "nul\x00"},
		{`"keep\q"`, `keep\q`},
		{`"héllo"`, "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := NewFromString(tt.input).Scan()
			if tok.Type != token.STRING {
				t.Fatalf("expected STRING, got %v (%s)", tok.Type, tok.Value)
			}
			if tok.Value != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tok.Value)
			}
		})
	}
}

func TestScanUnterminatedString(t *testing.T) {
	for _, input := range []string{`"abc`, "\"abc\ndef\"", `"abc\`} {
		t.Run(input, func(t *testing.T) {
			tok := NewFromString(input).Scan()
			if tok.Type != token.ILLEGAL {
				t.Fatalf("expected ILLEGAL, got %v", tok.Type)
			}
			if tok.Value != "unterminated string" {
				t.Errorf("unexpected message %q", tok.Value)
			}
			if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
				t.Errorf("expected error at 1:1, got %s", tok.Pos)
			}
		})
	}
}

func TestScanIllegal(t *testing.T) {
	toks := scanAll(t, "a # b")
	got := types(toks)
	want := []token.Token{token.NAME, token.ILLEGAL, token.NAME, token.DELIM, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d]: expected %v, got %v", i, want[i], got[i])
		}
	}
	if toks[1].Pos.Column != 3 {
		t.Errorf("expected illegal token at column 3, got %d", toks[1].Pos.Column)
	}
	if toks[1].Value != "unexpected character '#'" {
		t.Errorf("unexpected message %q", toks[1].Value)
	}

	for _, input := range []string{"&", "|", "a & b"} {
		found := false
		for _, tok := range scanAll(t, input) {
			if tok.Type == token.ILLEGAL {
				found = true
			}
		}
		if !found {
			t.Errorf("%q: expected an ILLEGAL token", input)
		}
	}
}

func TestDelimiters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Token
	}{
		{
			"newline after name",
			"a = 1\nb = 2",
			[]token.Token{
				token.NAME, token.ASSIGN, token.NUMBER, token.DELIM,
				token.NAME, token.ASSIGN, token.NUMBER, token.DELIM, token.EOF,
			},
		},
		{
			"newline inside call args",
			"f(1,\n2)",
			[]token.Token{
				token.NAME, token.LPAREN, token.NUMBER, token.COMMA,
				token.NUMBER, token.RPAREN, token.DELIM, token.EOF,
			},
		},
		{
			"newline after operator",
			"1 +\n2",
			[]token.Token{token.NUMBER, token.ADD, token.NUMBER, token.DELIM, token.EOF},
		},
		{
			"blank lines collapse",
			"a\n\n\nb",
			[]token.Token{token.NAME, token.DELIM, token.NAME, token.DELIM, token.EOF},
		},
		{
			"semicolons always delimit",
			"a;;b",
			[]token.Token{token.NAME, token.DELIM, token.DELIM, token.NAME, token.DELIM, token.EOF},
		},
		{
			"function header",
			"func f(a):\nret a\nend",
			[]token.Token{
				token.FUNC, token.NAME, token.LPAREN, token.NAME, token.RPAREN, token.COLON,
				token.RET, token.NAME, token.DELIM,
				token.END, token.DELIM, token.EOF,
			},
		},
		{
			"bare ret",
			"ret\nend",
			[]token.Token{token.RET, token.DELIM, token.END, token.DELIM, token.EOF},
		},
		{
			"illegal character keeps delimiter",
			"a #\nb",
			[]token.Token{token.NAME, token.ILLEGAL, token.DELIM, token.NAME, token.DELIM, token.EOF},
		},
		{
			"comments",
			"a // trailing\n// own line\nb",
			[]token.Token{token.NAME, token.DELIM, token.NAME, token.DELIM, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(scanAll(t, tt.input))
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token[%d]: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestPositions(t *testing.T) {
	toks := scanAll(t, "var x = 10\n  ret \"é\" + y")

	tests := []struct {
		typ       token.Token
		line, col int
		endCol    int
	}{
		{token.VAR, 1, 1, 4},
		{token.NAME, 1, 5, 6},
		{token.ASSIGN, 1, 7, 8},
		{token.NUMBER, 1, 9, 11},
		{token.DELIM, 1, 11, 12},
		{token.RET, 2, 3, 6},
		{token.STRING, 2, 7, 10},
		{token.ADD, 2, 11, 12},
		{token.NAME, 2, 13, 14},
	}

	for i, tt := range tests {
		tok := toks[i]
		if tok.Type != tt.typ {
			t.Fatalf("token[%d]: expected %v, got %v", i, tt.typ, tok.Type)
		}
		if tok.Pos.Line != tt.line || tok.Pos.Column != tt.col {
			t.Errorf("token[%d] %v: expected %d:%d, got %s", i, tt.typ, tt.line, tt.col, tok.Pos)
		}
		if tok.End.Column != tt.endCol {
			t.Errorf("token[%d] %v: expected end column %d, got %d", i, tt.typ, tt.endCol, tok.End.Column)
		}
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := NewFromString("x")
	if tok := l.Scan(); tok.Type != token.NAME {
		t.Fatalf("expected NAME, got %v", tok.Type)
	}
	if tok := l.Scan(); tok.Type != token.DELIM {
		t.Fatalf("expected DELIM, got %v", tok.Type)
	}
	for i := 0; i < 3; i++ {
		if tok := l.Scan(); tok.Type != token.EOF {
			t.Fatalf("call %d: expected EOF, got %v", i, tok.Type)
		}
	}
}

func TestScanValueOfTwoCharOperators(t *testing.T) {
	toks := scanAll(t, "a>=b")
	if toks[1].Type != token.GTE || toks[1].Value != ">=" {
		t.Errorf("expected >=, got %v %q", toks[1].Type, toks[1].Value)
	}
	if toks[1].Span().Width() != 2 {
		t.Errorf("expected width 2, got %d", toks[1].Span().Width())
	}
}
