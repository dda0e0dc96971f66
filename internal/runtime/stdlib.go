package runtime

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/custos/custoscript/internal/types"
)

// DefaultRegexCacheSize bounds the per-Stdlib pattern cache.
const DefaultRegexCacheSize = 64

// Stdlib holds the state shared by the standard natives of one host:
// where print writes, and the compiled pattern cache.
type Stdlib struct {
	mu      sync.Mutex // Serializes writes to out
	out     io.Writer
	regexes *RegexCache
}

// NewStdlib creates a standard library printing to out. A nil out
// discards printed text.
func NewStdlib(out io.Writer) *Stdlib {
	if out == nil {
		out = io.Discard
	}
	return &Stdlib{
		out:     out,
		regexes: NewRegexCache(DefaultRegexCacheSize),
	}
}

// Natives returns the standard natives, ready to register with a VM.
//
//	print(args...)              write args separated by spaces, then a newline
//	len(v)                      rune count of a string, length of an array
//	str(v)                      textual form of any value
//	num(v)                      number from a number, numeric string or bool
//	type(v)                     kind name: number, string, boolean, ...
//	join(array, sep)            join elements' textual forms with sep
//	match(pattern, s)           whether pattern matches anywhere in s
//	find(pattern, s)            first match, or none
//	find_all(pattern, s)        array of all matches
//	replace(pattern, s, repl)   replace every match ($1 expands groups)
//	split(pattern, s)           array of the pieces between matches
//
// Invalid patterns and wrongly typed arguments yield none.
func (s *Stdlib) Natives() []*types.Native {
	return []*types.Native{
		types.NewNative("print", 0, s.print),
		types.NewNative("len", 1, length),
		types.NewNative("str", 1, str),
		types.NewNative("num", 1, num),
		types.NewNative("type", 1, typeName),
		types.NewNative("join", 2, join),
		types.NewNative("match", 2, s.match),
		types.NewNative("find", 2, s.find),
		types.NewNative("find_all", 2, s.findAll),
		types.NewNative("replace", 3, s.replace),
		types.NewNative("split", 2, s.split),
	}
}

func (s *Stdlib) print(args []types.Value) types.Value {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte('\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, sb.String())
	return types.None()
}

func length(args []types.Value) types.Value {
	switch v := args[0]; v.Kind() {
	case types.KindString:
		str, _ := v.AsString()
		return types.Number(float64(utf8.RuneCountInString(str)))
	case types.KindArray:
		arr, _ := v.AsArray()
		return types.Number(float64(arr.Len()))
	default:
		return types.None()
	}
}

func str(args []types.Value) types.Value {
	return types.String(args[0].String())
}

func num(args []types.Value) types.Value {
	switch v := args[0]; v.Kind() {
	case types.KindNumber:
		return v
	case types.KindBool:
		if b, _ := v.AsBool(); b {
			return types.Number(1)
		}
		return types.Number(0)
	case types.KindString:
		str, _ := v.AsString()
		if n, ok := types.ParseNumber(str); ok {
			return types.Number(n)
		}
	}
	return types.None()
}

func typeName(args []types.Value) types.Value {
	return types.String(args[0].Kind().String())
}

func join(args []types.Value) types.Value {
	arr, ok := args[0].AsArray()
	sep, ok2 := args[1].AsString()
	if !ok || !ok2 {
		return types.None()
	}
	parts := make([]string, arr.Len())
	for i, v := range arr.Values() {
		parts[i] = v.String()
	}
	return types.String(strings.Join(parts, sep))
}

// regexArgs extracts a compiled pattern and the subject string.
func (s *Stdlib) regexArgs(args []types.Value) (*Regex, string, bool) {
	pattern, ok := args[0].AsString()
	if !ok {
		return nil, "", false
	}
	subject, ok := args[1].AsString()
	if !ok {
		return nil, "", false
	}
	re, err := s.regexes.Get(pattern)
	if err != nil {
		return nil, "", false
	}
	return re, subject, true
}

func (s *Stdlib) match(args []types.Value) types.Value {
	re, subject, ok := s.regexArgs(args)
	if !ok {
		return types.None()
	}
	return types.Bool(re.MatchString(subject))
}

func (s *Stdlib) find(args []types.Value) types.Value {
	re, subject, ok := s.regexArgs(args)
	if !ok {
		return types.None()
	}
	m, found := re.FindString(subject)
	if !found {
		return types.None()
	}
	return types.String(m)
}

func (s *Stdlib) findAll(args []types.Value) types.Value {
	re, subject, ok := s.regexArgs(args)
	if !ok {
		return types.None()
	}
	return types.Strings(re.FindAllString(subject, -1))
}

func (s *Stdlib) replace(args []types.Value) types.Value {
	re, subject, ok := s.regexArgs(args)
	if !ok {
		return types.None()
	}
	repl, ok := args[2].AsString()
	if !ok {
		return types.None()
	}
	return types.String(re.ReplaceAllString(subject, repl))
}

func (s *Stdlib) split(args []types.Value) types.Value {
	re, subject, ok := s.regexArgs(args)
	if !ok {
		return types.None()
	}
	return types.Strings(re.Split(subject, -1))
}
