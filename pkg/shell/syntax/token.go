package syntax

// Token identifies a lexical token.
type Token int

// Operator tokens, then words, then keywords. Keywords are produced only by
// reclassifying an unquoted WORD in a position where a keyword is allowed.
const (
	EOF Token = iota
	NEWLINE
	SEMI
	PIPE
	AND
	OR
	BGND
	LPAREN
	RPAREN
	LESS
	GREATER
	DLESS
	DGREATER
	WORD

	NOT
	WHILE
	UNTIL
	DO
	DONE
	IF
	THEN
	ELSE
	ELIF
	FI
	FOR
	IN
	LBRACE
	RBRACE
)

const firstKeyword = NOT

var tokenText = [...]string{
	EOF:      "<EOF>",
	NEWLINE:  "newline",
	SEMI:     ";",
	PIPE:     "|",
	AND:      "&&",
	OR:       "||",
	BGND:     "&",
	LPAREN:   "(",
	RPAREN:   ")",
	LESS:     "<",
	GREATER:  ">",
	DLESS:    "<<",
	DGREATER: ">>",
	WORD:     "word",
	NOT:      "!",
	WHILE:    "while",
	UNTIL:    "until",
	DO:       "do",
	DONE:     "done",
	IF:       "if",
	THEN:     "then",
	ELSE:     "else",
	ELIF:     "elif",
	FI:       "fi",
	FOR:      "for",
	IN:       "in",
	LBRACE:   "{",
	RBRACE:   "}",
}

func (t Token) String() string {
	if t >= 0 && int(t) < len(tokenText) {
		return tokenText[t]
	}
	return "?"
}

// keyword returns the keyword token spelled s, or WORD.
func keyword(s string) Token {
	for t := firstKeyword; int(t) < len(tokenText); t++ {
		if tokenText[t] == s {
			return t
		}
	}
	return WORD
}
