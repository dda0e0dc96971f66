// Package runtime provides the host-side standard library for custoscript:
// printing, conversions and regular expressions.
package runtime

import (
	"sync"

	"github.com/coregx/coregex"
)

// Regex wraps a compiled coregex pattern. Matching is leftmost-first
// (Perl-like) and '.' stops at newlines unless the pattern sets (?s).
type Regex struct {
	re *coregex.Regexp
}

// Compile creates a new Regex from pattern.
func Compile(pattern string) (*Regex, error) {
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Regex{re: re}, nil
}

// MatchString reports whether s contains any match.
func (r *Regex) MatchString(s string) bool {
	return r.re.MatchString(s)
}

// FindString returns the text of the first match and whether there was one.
func (r *Regex) FindString(s string) (string, bool) {
	loc := r.re.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return s[loc[0]:loc[1]], true
}

// FindAllString returns the text of up to n non-overlapping matches
// (all of them if n < 0).
func (r *Regex) FindAllString(s string, n int) []string {
	locs := r.re.FindAllStringIndex(s, n)
	out := make([]string, len(locs))
	for i, loc := range locs {
		out[i] = s[loc[0]:loc[1]]
	}
	return out
}

// ReplaceAllString replaces all matches with repl. $1-style group
// references in repl are expanded.
func (r *Regex) ReplaceAllString(s, repl string) string {
	return r.re.ReplaceAllString(s, repl)
}

// Split slices s into substrings separated by matches.
func (r *Regex) Split(s string, n int) []string {
	return r.re.Split(s, n)
}

// RegexCache provides thread-safe compiled regex caching with FIFO eviction.
// Scripts pass patterns as plain strings, so the same pattern is typically
// compiled once per cache rather than once per call.
type RegexCache struct {
	cache   sync.Map   // map[string]*Regex - lock-free reads
	orderMu sync.Mutex // Protects order slice for eviction
	order   []string   // FIFO order for eviction
	maxSize int
}

// NewRegexCache creates a cache holding at most maxSize patterns
// (100 when maxSize <= 0).
func NewRegexCache(maxSize int) *RegexCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RegexCache{
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// Get returns a compiled regex, compiling and caching if needed. Invalid
// patterns are not cached.
func (c *RegexCache) Get(pattern string) (*Regex, error) {
	if re, ok := c.cache.Load(pattern); ok {
		return re.(*Regex), nil
	}

	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	// Another goroutine might have stored it already.
	if existing, loaded := c.cache.LoadOrStore(pattern, re); loaded {
		return existing.(*Regex), nil
	}

	c.orderMu.Lock()
	c.order = append(c.order, pattern)
	for len(c.order) > c.maxSize {
		c.cache.Delete(c.order[0])
		c.order = c.order[1:]
	}
	c.orderMu.Unlock()

	return re, nil
}

// Len returns the number of cached regexes.
func (c *RegexCache) Len() int {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	return len(c.order)
}
