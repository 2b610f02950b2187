// Package syntax implements the shell's lexer and recursive-descent
// parser. Parsing produces a tree of Command nodes that is immutable
// afterwards; all text in the tree is held in ordinary Go strings.
package syntax

import "strings"

// SubstMarker stands in a Word's text for one command substitution. The
// input layer discards NUL bytes, so the marker cannot occur in source.
const SubstMarker = '\x00'

// Word is an unexpanded shell word. Text keeps quotes and backslashes as
// written; each SubstMarker byte in Text refers to the next element of
// Subst in order.
type Word struct {
	Text  string
	Subst []Command
}

// Lit returns a word with literal text and no substitutions.
func Lit(s string) *Word { return &Word{Text: s} }

// Assignment splits a NAME=value word. The value is returned as a word
// sharing the substitutions of w.
func (w *Word) Assignment() (name string, value *Word, ok bool) {
	n := NameLen(w.Text)
	if n == 0 || n >= len(w.Text) || w.Text[n] != '=' {
		return "", nil, false
	}
	return w.Text[:n], &Word{Text: w.Text[n+1:], Subst: w.Subst}, true
}

// String renders the word as source, with substitutions printed inline.
func (w *Word) String() string {
	if len(w.Subst) == 0 {
		return w.Text
	}
	var sb strings.Builder
	i := 0
	for _, c := range []byte(w.Text) {
		if c == SubstMarker && i < len(w.Subst) {
			sb.WriteString("$(")
			sb.WriteString(Format(w.Subst[i]))
			sb.WriteString(")")
			i++
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Command is a node of the command tree.
type Command interface {
	commandNode()
}

// Exec is a simple command.
type Exec struct {
	Args []*Word
}

// BinOp is the operator of a BinaryCmd.
type BinOp int

const (
	Pipe BinOp = iota
	AndIf
	OrIf
	List
	Background
)

// BinaryCmd joins two commands. Y may be nil for List and Background,
// where the separator trails its only command.
type BinaryCmd struct {
	Op   BinOp
	X, Y Command
}

// UnOp is the operator of a UnaryCmd.
type UnOp int

const (
	Not UnOp = iota
	Subshell
	Brace
)

// UnaryCmd wraps a single command.
type UnaryCmd struct {
	Op  UnOp
	Cmd Command
}

// RedirMode selects how a redirection opens its file.
type RedirMode int

const (
	RedirRead RedirMode = iota
	RedirWrite
	RedirAppend
)

// Redirect applies a file redirection around Cmd.
type Redirect struct {
	Cmd  Command
	File *Word
	Mode RedirMode
	Fd   int
}

// Loop is a while loop, or an until loop when Until is set.
type Loop struct {
	Until bool
	Cond  Command
	Body  Command
}

// If is a conditional; Else may be nil or another If for elif chains.
type If struct {
	Cond Command
	Then Command
	Else Command
}

// For iterates Name over the expansion of Words.
type For struct {
	Name  string
	Words []*Word
	Body  Command
}

// FuncDecl defines a function.
type FuncDecl struct {
	Name string
	Body Command
}

func (*Exec) commandNode()      {}
func (*BinaryCmd) commandNode() {}
func (*UnaryCmd) commandNode()  {}
func (*Redirect) commandNode()  {}
func (*Loop) commandNode()      {}
func (*If) commandNode()        {}
func (*For) commandNode()       {}
func (*FuncDecl) commandNode()  {}

// IsName reports whether s is a valid variable name.
func IsName(s string) bool {
	return s != "" && NameLen(s) == len(s)
}

// NameLen returns the length of the longest name prefix of s.
func NameLen(s string) int {
	if s == "" || !(isAlpha(s[0]) || s[0] == '_') {
		return 0
	}
	i := 1
	for i < len(s) && (isAlpha(s[i]) || isDigit(s[i]) || s[i] == '_') {
		i++
	}
	return i
}

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
