package syntax

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format renders c as one line of shell source.
func Format(c Command) string {
	var sb strings.Builder
	format(&sb, c)
	return sb.String()
}

func format(sb *strings.Builder, c Command) {
	switch c := c.(type) {
	case nil:
	case *Exec:
		for i, w := range c.Args {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(w.String())
		}
	case *BinaryCmd:
		format(sb, c.X)
		switch c.Op {
		case Pipe:
			sb.WriteString(" | ")
		case AndIf:
			sb.WriteString(" && ")
		case OrIf:
			sb.WriteString(" || ")
		case List:
			sb.WriteString("; ")
		case Background:
			sb.WriteString(" & ")
		}
		format(sb, c.Y)
	case *UnaryCmd:
		switch c.Op {
		case Not:
			sb.WriteString("! ")
			format(sb, c.Cmd)
		case Subshell:
			sb.WriteString("( ")
			format(sb, c.Cmd)
			sb.WriteString(" )")
		case Brace:
			sb.WriteString("{ ")
			format(sb, c.Cmd)
			sb.WriteString("; }")
		}
	case *Redirect:
		format(sb, c.Cmd)
		sb.WriteByte(' ')
		sb.WriteString(redirString(c))
	case *Loop:
		if c.Until {
			sb.WriteString("until ")
		} else {
			sb.WriteString("while ")
		}
		format(sb, c.Cond)
		sb.WriteString("; do ")
		format(sb, c.Body)
		sb.WriteString("; done")
	case *If:
		sb.WriteString("if ")
		format(sb, c.Cond)
		sb.WriteString("; then ")
		format(sb, c.Then)
		if c.Else != nil {
			sb.WriteString("; else ")
			format(sb, c.Else)
		}
		sb.WriteString("; fi")
	case *For:
		sb.WriteString("for ")
		sb.WriteString(c.Name)
		sb.WriteString(" in")
		for _, w := range c.Words {
			sb.WriteByte(' ')
			sb.WriteString(w.String())
		}
		sb.WriteString("; do ")
		format(sb, c.Body)
		sb.WriteString("; done")
	case *FuncDecl:
		sb.WriteString(c.Name)
		sb.WriteString("() ")
		format(sb, c.Body)
	}
}

func redirString(r *Redirect) string {
	op := ""
	def := 0
	switch r.Mode {
	case RedirRead:
		op = "<"
	case RedirWrite:
		op, def = ">", 1
	case RedirAppend:
		op, def = ">>", 1
	}
	if r.Fd != def {
		op = strconv.Itoa(r.Fd) + op
	}
	return op + r.File.String()
}

// Dump writes c to w as an indented tree, one node per line.
func Dump(w io.Writer, c Command) error {
	d := dumper{w: w}
	d.node(c, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) node(c Command, depth int) {
	switch c := c.(type) {
	case nil:
		d.line(depth, "<nil>")
	case *Exec:
		d.line(depth, "exec%s", quoteWords(c.Args))
	case *BinaryCmd:
		d.line(depth, "%s", [...]string{"pipe", "and", "or", "list", "background"}[c.Op])
		d.node(c.X, depth+1)
		if c.Y != nil {
			d.node(c.Y, depth+1)
		}
	case *UnaryCmd:
		d.line(depth, "%s", [...]string{"not", "subshell", "brace"}[c.Op])
		d.node(c.Cmd, depth+1)
	case *Redirect:
		d.line(depth, "redirect %s", redirString(c))
		d.node(c.Cmd, depth+1)
	case *Loop:
		if c.Until {
			d.line(depth, "until")
		} else {
			d.line(depth, "while")
		}
		d.section(depth+1, "cond", c.Cond)
		d.section(depth+1, "body", c.Body)
	case *If:
		d.line(depth, "if")
		d.section(depth+1, "cond", c.Cond)
		d.section(depth+1, "then", c.Then)
		if c.Else != nil {
			d.section(depth+1, "else", c.Else)
		}
	case *For:
		d.line(depth, "for %s in%s", c.Name, quoteWords(c.Words))
		d.node(c.Body, depth+1)
	case *FuncDecl:
		d.line(depth, "func %s", c.Name)
		d.node(c.Body, depth+1)
	}
}

func (d *dumper) section(depth int, name string, c Command) {
	d.line(depth, "%s", name)
	d.node(c, depth+1)
}

func quoteWords(words []*Word) string {
	var sb strings.Builder
	for _, w := range words {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Quote(w.String()))
	}
	return sb.String()
}
