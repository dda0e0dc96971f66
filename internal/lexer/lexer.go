// Package lexer provides custoscript source code tokenization.
//
// The lexer is lazy and forward-only: each call to Scan yields the next
// token, and once the end of input is reached every further call yields EOF.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custos/custoscript/internal/token"
)

// Lexer tokenizes custoscript source code.
type Lexer struct {
	src     string         // Source code
	ch      rune           // Current character
	eof     bool           // True once ch is past the end of src
	offset  int            // Byte offset of the next character
	pos     token.Position // Position of ch
	nextPos token.Position // Position of the next character

	lastTok token.Token // Previous legal token (for delimiter insertion)
}

// New creates a new Lexer for the given source code.
func New(src []byte) *Lexer {
	return NewFromString(string(src))
}

// NewFromString creates a new Lexer from a string.
func NewFromString(src string) *Lexer {
	l := &Lexer{
		src: src,
		nextPos: token.Position{
			Line:   1,
			Column: 1,
		},
		lastTok: token.DELIM,
	}
	l.next() // Initialize first character
	return l
}

// Token represents a scanned token with its span and value.
//
// Value holds the raw lexeme for names and numbers, the unescaped contents
// for strings, and the error message for ILLEGAL tokens.
type Token struct {
	Type  token.Token
	Pos   token.Position // First character of the token
	End   token.Position // Position immediately after the token
	Value string
}

// Span returns the source range covered by the token.
func (t Token) Span() token.Span {
	return token.Span{Start: t.Pos, End: t.End}
}

// String returns a description of the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case token.NAME, token.NUMBER:
		return t.Value
	case token.STRING:
		return fmt.Sprintf("%q", t.Value)
	case token.ILLEGAL:
		return t.Value
	default:
		return t.Type.String()
	}
}

// Scan scans and returns the next token.
func (l *Lexer) Scan() Token {
	tok := l.scan()
	if tok.Type != token.ILLEGAL {
		l.lastTok = tok.Type
	}
	return tok
}

func (l *Lexer) scan() Token {
	for {
		l.skipWhitespace()

		if l.ch == '/' && l.peek() == '/' {
			l.skipComment()
			continue
		}

		if l.ch == '\n' && !l.eof {
			pos := l.pos
			l.next()
			if l.lastTok.EndsStatement() {
				end := token.Position{Line: pos.Line, Column: pos.Column + 1, Offset: pos.Offset + 1}
				return Token{Type: token.DELIM, Pos: pos, End: end, Value: "\n"}
			}
			continue
		}
		break
	}

	pos := l.pos

	if l.eof {
		// A statement that runs up to the end of input is still terminated.
		if l.lastTok.EndsStatement() {
			return Token{Type: token.DELIM, Pos: pos, End: pos}
		}
		return Token{Type: token.EOF, Pos: pos, End: pos}
	}

	switch l.ch {
	case ';':
		l.next()
		return l.token(token.DELIM, pos, ";")
	case '+':
		l.next()
		return l.token(token.ADD, pos, "+")
	case '-':
		l.next()
		return l.token(token.SUB, pos, "-")
	case '*':
		l.next()
		return l.token(token.MUL, pos, "*")
	case '/':
		l.next()
		return l.token(token.DIV, pos, "/")

	case '=':
		l.next()
		if l.ch == '=' {
			l.next()
			return l.token(token.EQUALS, pos, "==")
		}
		return l.token(token.ASSIGN, pos, "=")

	case '!':
		l.next()
		if l.ch == '=' {
			l.next()
			return l.token(token.NOT_EQUALS, pos, "!=")
		}
		return l.token(token.NOT, pos, "!")

	case '<':
		l.next()
		if l.ch == '=' {
			l.next()
			return l.token(token.LTE, pos, "<=")
		}
		return l.token(token.LESS, pos, "<")

	case '>':
		l.next()
		if l.ch == '=' {
			l.next()
			return l.token(token.GTE, pos, ">=")
		}
		return l.token(token.GREATER, pos, ">")

	case '&':
		l.next()
		if l.ch == '&' {
			l.next()
			return l.token(token.AND, pos, "&&")
		}
		return l.token(token.ILLEGAL, pos, "unexpected character '&'")

	case '|':
		l.next()
		if l.ch == '|' {
			l.next()
			return l.token(token.OR, pos, "||")
		}
		return l.token(token.ILLEGAL, pos, "unexpected character '|'")

	case '(':
		l.next()
		return l.token(token.LPAREN, pos, "(")
	case ')':
		l.next()
		return l.token(token.RPAREN, pos, ")")
	case '[':
		l.next()
		return l.token(token.LBRACKET, pos, "[")
	case ']':
		l.next()
		return l.token(token.RBRACKET, pos, "]")
	case ',':
		l.next()
		return l.token(token.COMMA, pos, ",")
	case ':':
		l.next()
		return l.token(token.COLON, pos, ":")

	case '"':
		return l.scanString(pos)

	default:
		if isDigit(l.ch) {
			return l.scanNumber(pos)
		}
		if isIdentStart(l.ch) {
			return l.scanIdent(pos)
		}
		ch := l.ch
		l.next()
		return l.token(token.ILLEGAL, pos, fmt.Sprintf("unexpected character %q", ch))
	}
}

func (l *Lexer) token(typ token.Token, pos token.Position, value string) Token {
	return Token{Type: typ, Pos: pos, End: l.pos, Value: value}
}

func (l *Lexer) scanString(pos token.Position) Token {
	l.next() // consume opening quote

	var sb strings.Builder
	for !l.eof && l.ch != '"' && l.ch != '\n' {
		if l.ch == '\\' {
			l.next()
			if l.eof {
				break
			}
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte('\\')
				sb.WriteRune(l.ch)
			}
			l.next()
			continue
		}
		sb.WriteRune(l.ch)
		l.next()
	}

	if l.eof || l.ch != '"' {
		return l.token(token.ILLEGAL, pos, "unterminated string")
	}
	l.next() // consume closing quote

	return l.token(token.STRING, pos, sb.String())
}

func (l *Lexer) scanNumber(pos token.Position) Token {
	start := pos.Offset

	for isDigit(l.ch) {
		l.next()
	}
	if l.ch == '.' && isDigit(l.peek()) {
		l.next()
		for isDigit(l.ch) {
			l.next()
		}
	}

	return l.token(token.NUMBER, pos, l.src[start:l.endOffset()])
}

func (l *Lexer) scanIdent(pos token.Position) Token {
	start := pos.Offset
	for isIdentContinue(l.ch) {
		l.next()
	}
	name := l.src[start:l.endOffset()]
	return l.token(token.LookupIdent(name), pos, name)
}

// endOffset returns the byte offset just past the last consumed character.
func (l *Lexer) endOffset() int {
	if l.eof {
		return len(l.src)
	}
	return l.pos.Offset
}

func (l *Lexer) skipWhitespace() {
	for !l.eof && (l.ch == ' ' || l.ch == '\t' || l.ch == '\r') {
		l.next()
	}
}

func (l *Lexer) skipComment() {
	for !l.eof && l.ch != '\n' {
		l.next()
	}
}

// peek returns the character after ch without consuming it.
func (l *Lexer) peek() rune {
	if l.offset >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.offset:])
	return r
}

func (l *Lexer) next() {
	l.pos = l.nextPos
	if l.offset >= len(l.src) {
		l.ch = 0
		l.eof = true
		return
	}

	r, size := utf8.DecodeRuneInString(l.src[l.offset:])
	l.offset += size
	l.nextPos.Offset = l.offset
	if r == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	} else {
		l.nextPos.Column++
	}
	l.ch = r
}

// Helper functions

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' ||
		(ch >= utf8.RuneSelf && unicode.IsLetter(ch))
}

func isIdentContinue(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || (ch >= utf8.RuneSelf && unicode.IsDigit(ch))
}
