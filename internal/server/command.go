package server

import (
	"errors"
	"strings"
)

// CommandPrefix starts every eval command.
const CommandPrefix = "!eval "

const fence = "```"

var (
	// ErrNotCommand is returned for messages that are not eval commands.
	ErrNotCommand = errors.New("not an eval command")

	// ErrNoCode is returned when an eval command has no code block.
	ErrNoCode = errors.New("eval command has no ``` code block")
)

// Command is a parsed eval command:
//
//	!eval arg1 arg2 ```source```
type Command struct {
	Args   []string // Whitespace-separated words before the code block
	Source string   // Text between the fences
}

// ParseCommand parses an eval command. Everything before the first fence
// is split into arguments; the rest, minus its fences, is the source.
func ParseCommand(msg string) (Command, error) {
	if !strings.HasPrefix(msg, CommandPrefix) {
		return Command{}, ErrNotCommand
	}
	content := strings.TrimSpace(strings.TrimPrefix(msg, CommandPrefix))

	head, code, ok := strings.Cut(content, fence)
	if !ok {
		return Command{}, ErrNoCode
	}
	code = strings.TrimPrefix(code, fence)
	code = strings.TrimSuffix(code, fence)

	return Command{
		Args:   strings.Fields(head),
		Source: code,
	}, nil
}

// codeBlock wraps text in fences, the form errors are posted in.
func codeBlock(text string) string {
	return fence + text + fence
}
