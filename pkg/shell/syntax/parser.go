package syntax

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rcarmo/go-ash/pkg/core/arena"
)

// Error is a syntax error.
type Error struct {
	Line      int
	Token     string
	Expecting string
}

func (e *Error) Error() string {
	if e.Expecting == "" {
		return fmt.Sprintf("%d: syntax: `%s` unexpected", e.Line, e.Token)
	}
	return fmt.Sprintf("%d: syntax: `%s` unexpected (expecting `%s`)", e.Line, e.Token, e.Expecting)
}

// Parser turns input into commands one line at a time.
type Parser struct {
	in    *Input
	arena *arena.Arena

	tok   Token
	text  string
	subst []Command
	ioNum bool
}

type bailout struct {
	err error
}

// NewParser returns a parser reading from in. Scratch space for token text
// is taken from a; nil means a private arena.
func NewParser(in *Input, a *arena.Arena) *Parser {
	if a == nil {
		a = arena.New()
	}
	return &Parser{in: in, arena: a, tok: NEWLINE}
}

// Input returns the parser's input.
func (p *Parser) Input() *Input { return p.in }

// Next parses the next line. It returns a nil command for a blank line and
// io.EOF at end of input. After a syntax error the rest of the offending
// line is discarded, so Next can be called again.
func (p *Parser) Next() (cmd Command, err error) {
	if p.tok == EOF {
		return nil, io.EOF
	}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			cmd, err = nil, b.err
			p.resync(b.err)
		}
	}()
	p.in.SetPrompt(1)
	switch p.next() {
	case NEWLINE:
		return nil, nil
	case EOF:
		return nil, io.EOF
	}
	cmd = p.parseList()
	if p.tok != NEWLINE && p.tok != EOF {
		p.unexpected()
	}
	return cmd, nil
}

func (p *Parser) resync(err error) {
	if _, ok := err.(*Error); !ok {
		p.in.Reset()
		p.tok = NEWLINE
		return
	}
	if p.tok != NEWLINE && p.tok != EOF {
		p.in.SkipLine()
	}
	if p.tok != EOF {
		p.tok = NEWLINE
	}
}

// Parse parses all of src into a single command. Lines are joined as a
// list; blank input yields a nil command.
func Parse(src string) (Command, error) {
	p := NewParser(NewStringInput(src), nil)
	var all Command
	for {
		cmd, err := p.Next()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		if cmd == nil {
			continue
		}
		if all == nil {
			all = cmd
		} else {
			all = &BinaryCmd{Op: List, X: all, Y: cmd}
		}
	}
}

func (p *Parser) fail(err error) {
	panic(bailout{err})
}

func (p *Parser) tokenText() string {
	if p.tok == WORD {
		return p.text
	}
	return p.tok.String()
}

func (p *Parser) errLine() int {
	if p.tok == NEWLINE {
		return p.in.Line() - 1
	}
	return p.in.Line()
}

func (p *Parser) unexpected() {
	p.fail(&Error{Line: p.errLine(), Token: p.tokenText()})
}

func (p *Parser) expecting(t Token) {
	p.fail(&Error{Line: p.errLine(), Token: p.tokenText(), Expecting: t.String()})
}

// list: conditional ((';' | '&') conditional)*
func (p *Parser) parseList() Command {
	cmd := p.parseCond()
	for p.tok == SEMI || p.tok == BGND {
		op := List
		if p.tok == BGND {
			op = Background
		}
		p.next()
		if p.tok == NEWLINE || p.tok == EOF {
			cmd = joinList(op, cmd, nil)
			continue
		}
		cmd = joinList(op, cmd, p.parseCond())
	}
	return cmd
}

// joinList chains y after x. A '&' applies only to the last conditional of
// x, so "a; b & c" runs a, then b in the background, then c.
func joinList(op BinOp, x, y Command) Command {
	if op == Background {
		if b, ok := x.(*BinaryCmd); ok && (b.Op == List || b.Op == Background) && b.Y != nil {
			b.Y = joinList(Background, b.Y, y)
			return b
		}
	}
	return &BinaryCmd{Op: op, X: x, Y: y}
}

// conditional: pipeline (('&&' | '||') linebreak pipeline)*
func (p *Parser) parseCond() Command {
	cmd := p.parsePipe()
	for p.tok == AND || p.tok == OR {
		op := AndIf
		if p.tok == OR {
			op = OrIf
		}
		p.next()
		p.linebreak()
		cmd = &BinaryCmd{Op: op, X: cmd, Y: p.parsePipe()}
	}
	return cmd
}

// pipeline: ['!'] command ('|' linebreak command)*
func (p *Parser) parsePipe() Command {
	bang := false
	if p.checkwd() == NOT {
		bang = true
		p.next()
	}
	cmd := p.parseCmd()
	if cmd == nil {
		p.unexpected()
	}
	for p.tok == PIPE {
		p.next()
		p.linebreak()
		sub := p.parseCmd()
		if sub == nil {
			p.unexpected()
		}
		cmd = &BinaryCmd{Op: Pipe, X: cmd, Y: sub}
	}
	if bang {
		cmd = &UnaryCmd{Op: Not, Cmd: cmd}
	}
	return cmd
}

func (p *Parser) parseCmd() Command {
	switch p.checkwd() {
	case LBRACE, LPAREN, WHILE, UNTIL, IF, FOR:
		return p.parseCompound()
	}
	return p.parseSimple()
}

func (p *Parser) parseCompound() Command {
	var cmd Command
	switch p.checkwd() {
	case LBRACE, LPAREN:
		cmd = p.parseSub()
		p.next()
	case WHILE, UNTIL:
		cmd = p.parseLoop()
	case IF:
		cmd = p.parseIf()
	case FOR:
		cmd = p.parseFor()
	default:
		return nil
	}
	return p.parseRedir(cmd)
}

// parseSub parses '(' list ')' or '{' list '}'. The closing token is left
// current so that a command substitution can resume scanning its word.
func (p *Parser) parseSub() Command {
	open := p.tok
	op, closing := Subshell, RPAREN
	if open == LBRACE {
		op, closing = Brace, RBRACE
	}
	p.next()
	cmd := &UnaryCmd{Op: op, Cmd: p.parseCmpList()}
	if p.checkwd() != closing {
		p.expecting(closing)
	}
	return cmd
}

// parseSubst parses the body of $( ... ) after the opening parenthesis.
func (p *Parser) parseSubst() Command {
	p.tok = LPAREN
	return p.parseSub().(*UnaryCmd).Cmd
}

// compound list: linebreak conditional (separator conditional)* [separator]
func (p *Parser) parseCmpList() Command {
	p.linebreak()
	cmd := p.parseCond()
	for {
		op := List
		if p.tok == BGND {
			op = Background
		}
		if !p.separator() {
			return cmd
		}
		if p.listDone() {
			if op == Background {
				cmd = joinList(op, cmd, nil)
			}
			return cmd
		}
		cmd = joinList(op, cmd, p.parseCond())
	}
}

func (p *Parser) listDone() bool {
	switch p.checkwd() {
	case RPAREN, RBRACE, DO, DONE, THEN, ELSE, ELIF, FI, EOF:
		return true
	}
	return false
}

// separator consumes ';' or '&' followed by optional newlines, or one or
// more newlines. It reports whether anything was consumed.
func (p *Parser) separator() bool {
	if p.tok == SEMI || p.tok == BGND {
		p.next()
		p.linebreak()
		return true
	}
	return p.newlines()
}

func (p *Parser) sequentialSep() bool {
	if p.tok == SEMI {
		p.next()
		p.linebreak()
		return true
	}
	return p.newlines()
}

func (p *Parser) newlines() bool {
	if p.tok != NEWLINE {
		return false
	}
	for p.tok == NEWLINE {
		p.in.SetPrompt(2)
		p.next()
	}
	return true
}

func (p *Parser) linebreak() {
	p.newlines()
}

func (p *Parser) parseLoop() Command {
	until := p.tok == UNTIL
	p.next()
	cond := p.parseCmpList()
	body := p.parseDo()
	return &Loop{Until: until, Cond: cond, Body: body}
}

func (p *Parser) parseDo() Command {
	if p.checkwd() != DO {
		p.expecting(DO)
	}
	p.next()
	body := p.parseCmpList()
	if p.checkwd() != DONE {
		p.expecting(DONE)
	}
	p.next()
	return body
}

func (p *Parser) parseIf() Command {
	p.next()
	cmd := p.parseIfBody()
	if p.checkwd() != FI {
		p.expecting(FI)
	}
	p.next()
	return cmd
}

// parseIfBody parses "cond then list [elif ...] [else list]" without the
// closing fi.
func (p *Parser) parseIfBody() *If {
	cond := p.parseCmpList()
	if p.checkwd() != THEN {
		p.expecting(THEN)
	}
	p.next()
	cmd := &If{Cond: cond, Then: p.parseCmpList()}
	switch p.checkwd() {
	case ELIF:
		p.next()
		cmd.Else = p.parseIfBody()
	case ELSE:
		p.next()
		cmd.Else = p.parseCmpList()
	}
	return cmd
}

func (p *Parser) parseFor() Command {
	if p.next() != WORD || !IsName(p.text) {
		p.unexpected()
	}
	name := p.text
	p.next()
	p.linebreak()
	if p.checkwd() != IN {
		p.expecting(IN)
	}
	var words []*Word
	for p.next() == WORD {
		words = append(words, &Word{Text: p.text, Subst: p.subst})
	}
	p.sequentialSep()
	return &For{Name: name, Words: words, Body: p.parseDo()}
}

// parseSimple gathers words and redirections. It returns nil when there is
// neither.
func (p *Parser) parseSimple() Command {
	exec := &Exec{}
	var cmd Command = exec
	cmd = p.parseRedir(cmd)
	for p.tok == WORD {
		exec.Args = append(exec.Args, &Word{Text: p.text, Subst: p.subst})
		p.next()
		cmd = p.parseRedir(cmd)
	}
	if p.tok == LPAREN && len(exec.Args) == 1 {
		return p.parseFunc(exec.Args[0])
	}
	if len(exec.Args) == 0 {
		if _, ok := cmd.(*Redirect); !ok {
			return nil
		}
	}
	return cmd
}

func (p *Parser) parseFunc(name *Word) Command {
	if !IsName(name.Text) {
		p.unexpected()
	}
	if p.next() != RPAREN {
		p.expecting(RPAREN)
	}
	p.next()
	p.linebreak()
	body := p.parseCompound()
	if body == nil {
		body = p.parseSimple()
	}
	if body == nil {
		p.unexpected()
	}
	return &FuncDecl{Name: name.Text, Body: body}
}

// parseRedir parses any redirections following cmd. Each new redirection
// wraps the innermost command, so the first one written is applied first.
func (p *Parser) parseRedir(cmd Command) Command {
	for {
		fd := 0
		switch p.tok {
		case LESS:
		case GREATER, DGREATER:
			fd = 1
		case WORD:
			if !p.ioNum {
				return cmd
			}
			n, err := strconv.Atoi(p.text)
			if err != nil {
				return cmd
			}
			fd = n
			p.next()
		default:
			return cmd
		}

		var mode RedirMode
		switch p.tok {
		case LESS:
			mode = RedirRead
		case GREATER:
			mode = RedirWrite
		case DGREATER:
			mode = RedirAppend
		default:
			p.unexpected()
		}
		if p.next() != WORD {
			p.unexpected()
		}
		file := &Word{Text: p.text, Subst: p.subst}

		if r, ok := cmd.(*Redirect); ok {
			for {
				inner, ok := r.Cmd.(*Redirect)
				if !ok {
					break
				}
				r = inner
			}
			r.Cmd = &Redirect{Cmd: r.Cmd, File: file, Mode: mode, Fd: fd}
		} else {
			cmd = &Redirect{Cmd: cmd, File: file, Mode: mode, Fd: fd}
		}
		p.next()
	}
}
