package syntax

import (
	"bufio"
	"io"
	"strings"
)

// EOFChar is returned by Input.Getc at end of input.
const EOFChar = -1

// LineReader supplies source text a line at a time. prompt is the text an
// interactive reader should display before reading; other readers ignore it.
// A reader may return data together with io.EOF for a final unterminated line.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Input buffers source text for the lexer. It strips NUL bytes, counts
// lines and allows two characters of push-back.
type Input struct {
	r    LineReader
	buf  string
	pos  int
	line int
	err  error

	hist  [2]int
	ungot int

	// which prompt the next read uses: 1 for PS1, 2 for PS2
	which int
	// Prompt maps 1 or 2 to the prompt text. Nil means no prompt.
	Prompt func(which int) string
}

// NewInput returns an Input reading from r.
func NewInput(r LineReader) *Input {
	return &Input{r: r, line: 1, which: 1}
}

// NewStringInput returns an Input over a fixed string.
func NewStringInput(s string) *Input {
	return NewInput(&stringReader{s: s})
}

// NewReaderInput returns an Input that reads lines from r.
func NewReaderInput(r io.Reader) *Input {
	return NewInput(&bufReader{r: bufio.NewReader(r)})
}

type stringReader struct {
	s    string
	done bool
}

func (sr *stringReader) ReadLine(string) (string, error) {
	if sr.done {
		return "", io.EOF
	}
	sr.done = true
	return sr.s, io.EOF
}

type bufReader struct {
	r *bufio.Reader
}

func (br *bufReader) ReadLine(string) (string, error) {
	return br.r.ReadString('\n')
}

// Line returns the current line number, starting at 1.
func (in *Input) Line() int { return in.line }

// Err returns the error that ended input, if it was not io.EOF.
func (in *Input) Err() error {
	if in.err == io.EOF {
		return nil
	}
	return in.err
}

// SetPrompt selects the prompt for the next line read.
func (in *Input) SetPrompt(which int) { in.which = which }

// Getc returns the next byte, or EOFChar.
func (in *Input) Getc() int {
	if in.ungot > 0 {
		in.ungot--
		c := in.hist[in.ungot]
		if c == '\n' {
			in.line++
		}
		return c
	}
	for in.pos >= len(in.buf) {
		if !in.fill() {
			in.push(EOFChar)
			return EOFChar
		}
	}
	c := int(in.buf[in.pos])
	in.pos++
	if c == '\n' {
		in.line++
	}
	in.push(c)
	return c
}

func (in *Input) push(c int) {
	in.hist[1] = in.hist[0]
	in.hist[0] = c
}

// Ungetc pushes back the most recently read character. At most two
// characters can be pushed back.
func (in *Input) Ungetc() {
	if in.ungot >= len(in.hist) {
		panic("syntax: too many ungetc")
	}
	if in.hist[in.ungot] == '\n' {
		in.line--
	}
	in.ungot++
}

func (in *Input) fill() bool {
	if in.err != nil {
		return false
	}
	prompt := ""
	if in.Prompt != nil {
		prompt = in.Prompt(in.which)
	}
	s, err := in.r.ReadLine(prompt)
	in.err = err
	in.which = 2
	in.buf = strings.ReplaceAll(s, "\x00", "")
	in.pos = 0
	return in.buf != "" || err == nil
}

// SkipLine discards input up to and including the next newline.
func (in *Input) SkipLine() {
	for {
		c := in.Getc()
		if c == '\n' || c == EOFChar {
			return
		}
	}
}

// Reset drops any buffered input, for example after an interrupt.
func (in *Input) Reset() {
	in.buf = ""
	in.pos = 0
	in.ungot = 0
	in.hist = [2]int{}
	if in.err != nil && in.err != io.EOF {
		in.err = nil
	}
}
