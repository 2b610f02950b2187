// Package expand performs word expansion: parameter and command
// substitution, field splitting and quote removal.
package expand

import (
	"context"
	"errors"
	"strings"

	"github.com/rcarmo/go-ash/pkg/core/arena"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
	"github.com/rcarmo/go-ash/pkg/shell/vars"
)

// Env supplies variable values. Besides ordinary names it is asked for
// the special parameters "?" and "$".
type Env interface {
	Get(name string) (string, bool)
}

// Config holds what an expansion needs from the shell.
type Config struct {
	Env Env
	// CmdSubst runs cmd and returns its standard output.
	CmdSubst func(ctx context.Context, cmd syntax.Command) (string, error)
	// Arena provides scratch space; nil means a private arena.
	Arena *arena.Arena
}

// ErrSubst is returned when a word refers to a missing substitution.
var ErrSubst = errors.New("expand: substitution marker without command")

// Fields expands words into argument strings.
func Fields(ctx context.Context, cfg *Config, words ...*syntax.Word) ([]string, error) {
	e := newExpander(ctx, cfg, false)
	for _, w := range words {
		if err := e.word(w); err != nil {
			return nil, err
		}
		e.endWord()
	}
	return e.fields, nil
}

// Literal expands w into a single string without field splitting, as for
// a redirection target or an assignment value.
func Literal(ctx context.Context, cfg *Config, w *syntax.Word) (string, error) {
	e := newExpander(ctx, cfg, true)
	if err := e.word(w); err != nil {
		return "", err
	}
	return e.cur.String(), nil
}

type expander struct {
	ctx     context.Context
	cfg     *Config
	literal bool
	ifs     string

	fields []string
	cur    *arena.Builder
	// the current field exists: it has text or a quote was opened
	started bool
	// an IFS separator was seen; the next character starts a new field
	split bool
}

func newExpander(ctx context.Context, cfg *Config, literal bool) *expander {
	a := cfg.Arena
	if a == nil {
		a = arena.New()
	}
	ifs, ok := cfg.Env.Get("IFS")
	if !ok {
		ifs = vars.DefaultIFS
	}
	return &expander{ctx: ctx, cfg: cfg, literal: literal, ifs: ifs, cur: a.NewBuilder()}
}

func (e *expander) word(w *syntax.Word) error {
	subst := w.Subst
	s := w.Text
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
			e.open()
		case c == '\\' && quote == 0:
			i++
			if i < len(s) && s[i] != '\n' {
				e.putc(s[i])
			}
		case c == '\\' && quote == '"':
			i++
			if i >= len(s) {
				e.putc('\\')
				break
			}
			if !strings.ContainsRune("$\\\"`\n", rune(s[i])) {
				e.putc('\\')
			}
			if s[i] != '\n' {
				e.putc(s[i])
			}
		case c == '$' && quote != '\'':
			name, n := param(s[i+1:])
			if n == 0 {
				e.putc('$')
				break
			}
			val, _ := e.cfg.Env.Get(name)
			e.value(val, quote == '"')
			i += n
		case c == syntax.SubstMarker:
			if len(subst) == 0 {
				return ErrSubst
			}
			out, err := e.cfg.CmdSubst(e.ctx, subst[0])
			if err != nil {
				return err
			}
			subst = subst[1:]
			e.value(strings.TrimSuffix(out, "\n"), quote == '"')
		default:
			e.putc(c)
		}
	}
	return nil
}

// param returns the parameter named at the start of s and the number of
// bytes it spans.
func param(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	switch s[0] {
	case '?', '$':
		return s[:1], 1
	case '{':
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", 0
		}
		name := s[1:end]
		if name != "?" && name != "$" && !syntax.IsName(name) {
			return "", 0
		}
		return name, end + 1
	}
	n := syntax.NameLen(s)
	return s[:n], n
}

func (e *expander) putc(c byte) {
	if e.split {
		e.flush()
	}
	_ = e.cur.WriteByte(c)
	e.started = true
}

// open notes a quote: the current field exists even if it stays empty.
func (e *expander) open() {
	if e.split {
		e.flush()
	}
	e.started = true
}

// value appends a substituted value, splitting it on IFS unless quoted.
func (e *expander) value(v string, quoted bool) {
	if quoted || e.literal || e.ifs == "" {
		for i := 0; i < len(v); i++ {
			e.putc(v[i])
		}
		return
	}
	for i := 0; i < len(v); i++ {
		if strings.IndexByte(e.ifs, v[i]) >= 0 {
			if e.started {
				e.split = true
			}
			continue
		}
		e.putc(v[i])
	}
}

func (e *expander) flush() {
	e.fields = append(e.fields, e.cur.String())
	e.cur.Reset()
	e.started = false
	e.split = false
}

func (e *expander) endWord() {
	if e.started {
		e.flush()
	}
	e.split = false
}
