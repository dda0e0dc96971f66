package custoscript

import (
	"io"

	"github.com/custos/custoscript/internal/vm"
)

// Config holds configuration options for a script run.
type Config struct {
	// Args are returned, as an array of strings, by the get_args() native.
	Args []string

	// Globals contains pre-seeded global variables.
	// Example: map[string]Value{"limit": custoscript.Number(3)}
	Globals map[string]Value

	// Natives are registered as globals before the script runs. They
	// replace a standard native or get_args of the same name.
	Natives []*Native

	// Entry, if set, names a script function called with no arguments
	// after the top-level code finishes. Its return value becomes the
	// result.
	Entry string

	// Stdlib registers the standard natives: print, len, str, num, type,
	// join, match, find, find_all, replace and split.
	Stdlib bool

	// Output is the writer for print.
	// If nil, output is captured and returned in Result.Output.
	Output io.Writer

	// MaxSteps bounds the number of instructions executed (0 = no limit).
	MaxSteps int

	// MaxFrames bounds call depth (default: 1024).
	MaxFrames int
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults() {
	if c.MaxFrames <= 0 {
		c.MaxFrames = vm.DefaultMaxFrames
	}
}

// vmConfig returns the VM limits for this run.
func (c *Config) vmConfig() vm.Config {
	return vm.Config{
		MaxFrames: c.MaxFrames,
		MaxSteps:  c.MaxSteps,
	}
}
