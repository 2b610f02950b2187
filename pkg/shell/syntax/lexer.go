package syntax

// The lexer works directly on the Parser: a command substitution inside a
// word starts a nested parse that shares the input and token state.

func isBlank(c int) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f'
}

func isDelim(c int) bool {
	switch c {
	case ' ', '\t', '\r', '\v', '\n', '(', ')', '<', '>', '&', ';', '|':
		return true
	}
	return false
}

// readc returns the next input byte with backslash-newline continuations
// removed and stray control characters dropped.
func (p *Parser) readc() int {
	for {
		c := p.in.Getc()
		switch {
		case c == EOFChar:
			if err := p.in.Err(); err != nil {
				p.fail(err)
			}
			return c
		case c == '\\':
			if p.in.Getc() == '\n' {
				continue
			}
			p.in.Ungetc()
			return c
		case c < 0x20 && c != '\t' && c != '\n' && c != '\r' && c != '\v' && c != '\f', c == 0x7f:
			continue
		}
		return c
	}
}

func (p *Parser) skipBlanks() int {
	for {
		c := p.readc()
		if !isBlank(c) {
			return c
		}
	}
}

// next scans the next token into p.tok, p.text and p.subst.
func (p *Parser) next() Token {
	p.text = ""
	p.subst = nil
	p.ioNum = false

	c := p.skipBlanks()
	if c == '#' {
		for c != '\n' && c != EOFChar {
			c = p.readc()
		}
	}
	switch c {
	case EOFChar:
		p.tok = EOF
	case '\n':
		p.tok = NEWLINE
	case ';':
		p.tok = SEMI
	case '(':
		p.tok = LPAREN
	case ')':
		p.tok = RPAREN
	case '|':
		p.tok = p.pair('|', OR, PIPE)
	case '&':
		p.tok = p.pair('&', AND, BGND)
	case '<':
		p.tok = p.pair('<', DLESS, LESS)
	case '>':
		p.tok = p.pair('>', DGREATER, GREATER)
	default:
		p.in.Ungetc()
		p.word()
	}
	return p.tok
}

func (p *Parser) pair(c int, double, single Token) Token {
	if p.readc() == c {
		return double
	}
	p.in.Ungetc()
	return single
}

// word scans a WORD token. Quotes and backslashes are kept in the text;
// $( starts a nested parse whose result is recorded in the substitution
// list and marked in the text.
func (p *Parser) word() {
	b := p.arena.NewBuilder()
	var subst []Command
	quote := 0
	digits := true
	c := 0
	for {
		c = p.readc()
		if c == EOFChar {
			if quote != 0 {
				p.fail(&Error{Line: p.in.Line(), Token: EOF.String(), Expecting: string(rune(quote))})
			}
			break
		}
		if quote == 0 && isDelim(c) {
			p.in.Ungetc()
			break
		}
		if !isDigit(byte(c)) {
			digits = false
		}
		switch {
		case c == quote:
			quote = 0
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		case c == '\\' && quote != '\'':
			_ = b.WriteByte('\\')
			d := p.in.Getc()
			if d == EOFChar {
				p.in.Ungetc()
				continue
			}
			c = d
		case c == '$' && quote != '\'':
			if p.readc() == '(' {
				subst = append(subst, p.parseSubst())
				_ = b.WriteByte(SubstMarker)
				continue
			}
			p.in.Ungetc()
		}
		_ = b.WriteByte(byte(c))
	}
	p.tok = WORD
	p.text = b.String()
	p.subst = subst
	p.ioNum = digits && b.Len() > 0 && (c == '<' || c == '>')
}

// checkwd turns an unquoted WORD spelling a keyword into that keyword.
func (p *Parser) checkwd() Token {
	if p.tok == WORD {
		if k := keyword(p.text); k != WORD {
			p.tok = k
		}
	}
	return p.tok
}
