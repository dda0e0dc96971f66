// Package token defines lexical tokens for custoscript.
package token

import (
	"sort"
	"strconv"
)

// Token represents a lexical token type.
type Token uint8

const (
	// Special tokens
	ILLEGAL Token = iota // <illegal>
	EOF                  // EOF
	DELIM                // <delimiter>

	// Operators and punctuation
	ADD        // +
	SUB        // -
	MUL        // *
	DIV        // /
	ASSIGN     // =
	EQUALS     // ==
	NOT_EQUALS // !=
	LESS       // <
	LTE        // <=
	GREATER    // >
	GTE        // >=
	AND        // &&
	OR         // ||
	NOT        // !

	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	COLON    // :

	// Keywords
	FUNC  // func
	VAR   // var
	FOR   // for
	IN    // in
	IF    // if
	ELSE  // else
	RET   // ret
	END   // end
	TRUE  // true
	FALSE // false
	NONE  // none

	// Literals
	NAME   // name
	NUMBER // number
	STRING // string
)

var names = [...]string{
	ILLEGAL:    "illegal",
	EOF:        "end of file",
	DELIM:      "';' or newline",
	ADD:        "+",
	SUB:        "-",
	MUL:        "*",
	DIV:        "/",
	ASSIGN:     "=",
	EQUALS:     "==",
	NOT_EQUALS: "!=",
	LESS:       "<",
	LTE:        "<=",
	GREATER:    ">",
	GTE:        ">=",
	AND:        "&&",
	OR:         "||",
	NOT:        "!",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACKET:   "[",
	RBRACKET:   "]",
	COMMA:      ",",
	COLON:      ":",
	FUNC:       "func",
	VAR:        "var",
	FOR:        "for",
	IN:         "in",
	IF:         "if",
	ELSE:       "else",
	RET:        "ret",
	END:        "end",
	TRUE:       "true",
	FALSE:      "false",
	NONE:       "none",
	NAME:       "identifier",
	NUMBER:     "number",
	STRING:     "string",
}

// String returns the source spelling of operators and keywords, or a
// description for the other token types.
func (t Token) String() string {
	if int(t) < len(names) && names[t] != "" {
		return names[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// EndsStatement reports whether a newline after t acts as a delimiter.
func (t Token) EndsStatement() bool {
	switch t {
	case NAME, NUMBER, STRING, TRUE, FALSE, NONE, RPAREN, RBRACKET, END, RET:
		return true
	}
	return false
}

// StartsDeclaration reports whether t can begin a declaration that the
// parser resynchronizes on after an error.
func (t Token) StartsDeclaration() bool {
	switch t {
	case FUNC, FOR, IF, RET, END, ELSE:
		return true
	}
	return false
}

var keywords = map[string]Token{
	"func":  FUNC,
	"var":   VAR,
	"for":   FOR,
	"in":    IN,
	"if":    IF,
	"else":  ELSE,
	"ret":   RET,
	"end":   END,
	"true":  TRUE,
	"false": FALSE,
	"none":  NONE,
}

// LookupIdent returns the keyword token for ident, or NAME.
func LookupIdent(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// Keywords returns the keyword spellings (used for REPL completion).
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
