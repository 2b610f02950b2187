package syntax

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func lexAll(src string) []string {
	p := NewParser(NewStringInput(src), nil)
	var out []string
	for {
		switch tok := p.next(); tok {
		case EOF:
			return out
		case WORD:
			out = append(out, "w:"+p.text)
		default:
			out = append(out, tok.String())
		}
	}
}

func TestLexer(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"words", "echo hi;ls", []string{"w:echo", "w:hi", ";", "w:ls"}},
		{"operators", "a&&b||c|d&", []string{"w:a", "&&", "w:b", "||", "w:c", "|", "w:d", "&"}},
		{"redirections", "cat <in >>out 2>err", []string{"w:cat", "<", "w:in", ">>", "w:out", "w:2", ">", "w:err"}},
		{"heredoc operator", "cat a<<b", []string{"w:cat", "w:a", "<<", "w:b"}},
		{"quotes keep delimiters", `echo "a b" 'c;d' e\ f`, []string{"w:echo", `w:"a b"`, "w:'c;d'", `w:e\ f`}},
		{"continuation", "echo a\\\nb", []string{"w:echo", "w:ab"}},
		{"comment", "echo # not an arg\nx", []string{"w:echo", "newline", "w:x"}},
		{"hash inside word", "a#b", []string{"w:a#b"}},
		{"control characters dropped", "ec\x01ho", []string{"w:echo"}},
		{"nul stripped", "e\x00cho", []string{"w:echo"}},
		{"subshell parens", "(a)", []string{"(", "w:a", ")"}},
		{"dollar at end", "echo $", []string{"w:echo", "w:$"}},
		{"newline in quotes", "echo 'a\nb'", []string{"w:echo", "w:'a\nb'"}},
		{"utf8 kept", "echo héllo", []string{"w:echo", "w:héllo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lexAll(tt.src))
		})
	}
}

func TestLexerCommandSubstitution(t *testing.T) {
	p := NewParser(NewStringInput(`x$(echo "a b")y z`), nil)
	assert.Equal(t, WORD, p.next())
	assert.Equal(t, "x\x00y", p.text)
	if assert.Len(t, p.subst, 1) {
		assert.Equal(t, `echo "a b"`, Format(p.subst[0]))
	}
	assert.Equal(t, WORD, p.next())
	assert.Equal(t, "z", p.text)
	assert.Empty(t, p.subst)
}

func TestLexerIONumber(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"2>f", true},
		{"10<f", true},
		{"2 >f", false},
		{"a2>f", false},
		{"'2'>f", false},
		{"2", false},
	}
	for _, tt := range tests {
		p := NewParser(NewStringInput(tt.src), nil)
		p.next()
		assert.Equal(t, tt.want, p.ioNum, tt.src)
	}
}

func TestCheckwd(t *testing.T) {
	p := NewParser(NewStringInput(`while "do" done`), nil)
	p.next()
	assert.Equal(t, WHILE, p.checkwd())
	p.next()
	assert.Equal(t, WORD, p.checkwd(), "quoted keywords stay words")
	p.next()
	assert.Equal(t, DONE, p.checkwd())
}

func TestInputLines(t *testing.T) {
	in := NewStringInput("a\nb\n")
	assert.Equal(t, 1, in.Line())
	in.Getc()
	in.Getc()
	assert.Equal(t, 2, in.Line())
	in.Ungetc()
	assert.Equal(t, 1, in.Line())
	assert.Equal(t, int('\n'), in.Getc())
	assert.Equal(t, int('b'), in.Getc())
	in.Getc()
	assert.Equal(t, EOFChar, in.Getc())
	assert.Equal(t, 3, in.Line())
}

type promptRecorder struct {
	lines   []string
	prompts []string
}

func (r *promptRecorder) ReadLine(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	l := r.lines[0]
	r.lines = r.lines[1:]
	return l, nil
}

func TestInputPrompts(t *testing.T) {
	rec := &promptRecorder{lines: []string{"if true\n", "then echo\n", "fi\n", "echo\n"}}
	in := NewInput(rec)
	in.Prompt = func(which int) string {
		if which == 1 {
			return "$ "
		}
		return "> "
	}
	p := NewParser(in, nil)
	cmd, err := p.Next()
	assert.NoError(t, err)
	assert.IsType(t, &If{}, cmd)
	_, err = p.Next()
	assert.NoError(t, err)
	assert.Equal(t, []string{"$ ", "> ", "> ", "$ "}, rec.prompts)
}
