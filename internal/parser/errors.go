// Package parser provides a custoscript recursive descent parser.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custos/custoscript/internal/token"
)

// ParseError represents a syntax error encountered during parsing.
//
// Error renders three lines: "line:column message", the offending source
// line with leading whitespace trimmed, and a row of '~' underlining the
// offending token.
type ParseError struct {
	Pos     token.Position // Position where the error occurred
	Width   int            // Width of the offending token in runes (at least 1)
	Message string         // Human-readable error message
	Line    string         // Source line containing Pos, untrimmed

	// AtEOF is set when the offending token is the end of input, so more
	// source might complete the program.
	AtEOF bool
}

// Error returns the formatted error report.
func (e *ParseError) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}

	trimmed := strings.TrimLeftFunc(e.Line, unicode.IsSpace)
	indent := utf8.RuneCountInString(e.Line) - utf8.RuneCountInString(trimmed)

	pad := e.Pos.Column - 1 - indent
	if pad < 0 {
		pad = 0
	}
	width := e.Width
	if width < 1 {
		width = 1
	}

	return fmt.Sprintf("%s %s\n%s\n%s%s",
		e.Pos, e.Message, trimmed, strings.Repeat(" ", pad), strings.Repeat("~", width))
}

// ErrorList is a list of parse errors.
type ErrorList []*ParseError

// Error returns every error report joined by newlines.
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns an error if there are any errors, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// IsIncomplete reports whether err is a syntax error caused only by the
// source ending early, as when a block is still open. Interactive readers
// use it to ask for another line.
func IsIncomplete(err error) bool {
	var el ErrorList
	if errors.As(err, &el) {
		return len(el) > 0 && el[len(el)-1].AtEOF
	}
	var pe *ParseError
	return errors.As(err, &pe) && pe.AtEOF
}

// sourceLine returns line n (1-based) of src, or "" when out of range.
func sourceLine(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}
