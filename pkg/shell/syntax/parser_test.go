package syntax_test

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/rcarmo/go-ash/pkg/shell/syntax"
)

func words(args ...string) []*Word {
	ws := make([]*Word, len(args))
	for i, a := range args {
		ws[i] = Lit(a)
	}
	return ws
}

func call(args ...string) *Exec { return &Exec{Args: words(args...)} }

func TestParseStructure(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Command
	}{
		{"simple", "echo hi", call("echo", "hi")},
		{"and-or is left associative", "a && b || c",
			&BinaryCmd{Op: OrIf, X: &BinaryCmd{Op: AndIf, X: call("a"), Y: call("b")}, Y: call("c")}},
		{"pipe binds tighter than and", "a | b && c",
			&BinaryCmd{Op: AndIf, X: &BinaryCmd{Op: Pipe, X: call("a"), Y: call("b")}, Y: call("c")}},
		{"bang negates the pipeline", "! a | b",
			&UnaryCmd{Op: Not, Cmd: &BinaryCmd{Op: Pipe, X: call("a"), Y: call("b")}}},
		{"newline after operator", "a &&\n\nb", &BinaryCmd{Op: AndIf, X: call("a"), Y: call("b")}},
		{"redirections apply first-declared outermost", "cmd >a 2>b",
			&Redirect{
				Cmd:  &Redirect{Cmd: call("cmd"), File: Lit("b"), Mode: RedirWrite, Fd: 2},
				File: Lit("a"), Mode: RedirWrite, Fd: 1,
			}},
		{"redirect before words", "<in cat", &Redirect{Cmd: call("cat"), File: Lit("in"), Mode: RedirRead}},
		{"redirect only", ">out", &Redirect{Cmd: &Exec{}, File: Lit("out"), Mode: RedirWrite, Fd: 1}},
		{"append", "echo x >>log", &Redirect{Cmd: call("echo", "x"), File: Lit("log"), Mode: RedirAppend, Fd: 1}},
		{"trailing semicolon", "a;", &BinaryCmd{Op: List, X: call("a")}},
		{"trailing ampersand", "a &", &BinaryCmd{Op: Background, X: call("a")}},
		{"ampersand binds to last conditional", "a; b & c",
			&BinaryCmd{Op: List, X: call("a"), Y: &BinaryCmd{Op: Background, X: call("b"), Y: call("c")}}},
		{"keywords as arguments", "echo if then fi", call("echo", "if", "then", "fi")},
		{"quoted keyword is a word", `"if" x`, call(`"if"`, "x")},
		{"elif chain", "if a; then b; elif c; then d; else e; fi",
			&If{Cond: call("a"), Then: call("b"), Else: &If{Cond: call("c"), Then: call("d"), Else: call("e")}}},
		{"then after subshell", "if (a) then b; fi",
			&If{Cond: &UnaryCmd{Op: Subshell, Cmd: call("a")}, Then: call("b")}},
		{"until", "until a; do b; done", &Loop{Until: true, Cond: call("a"), Body: call("b")}},
		{"for", "for x in a b; do echo $x; done",
			&For{Name: "x", Words: words("a", "b"), Body: call("echo", "$x")}},
		{"function", "f() { echo; }", &FuncDecl{Name: "f", Body: &UnaryCmd{Op: Brace, Cmd: call("echo")}}},
		{"brace group redirect", "{ a; } >out",
			&Redirect{Cmd: &UnaryCmd{Op: Brace, Cmd: call("a")}, File: Lit("out"), Mode: RedirWrite, Fd: 1}},
		{"lines join as a list", "a\nb", &BinaryCmd{Op: List, X: call("a"), Y: call("b")}},
		{"blank input", "\n\n# only a comment\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestParseGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)
	tests := map[string]string{
		"pipeline_and_or": "! a | b && c || d >out",
		"loops":           "while test -n \"$x\"; do\n  for i in 1 \"2 3\"; do echo $i; done\ndone\n",
		"subst":           `echo "$(date | cut -c1)" x`,
		"brace_redirect":  "{ a; b & } 2>>log; c",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, err := Parse(src)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, Dump(&buf, cmd))
			g.Assert(t, name, buf.Bytes())
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"if true; then echo", "1: syntax: `<EOF>` unexpected (expecting `fi`)"},
		{"echo )", "1: syntax: `)` unexpected"},
		{"a &&", "1: syntax: `<EOF>` unexpected"},
		{"cat <<EOF", "1: syntax: `<<` unexpected"},
		{"echo ok\n)", "2: syntax: `)` unexpected"},
		{"while true; done", "1: syntax: `done` unexpected (expecting `do`)"},
		{"for 1x in a; do b; done", "1: syntax: `1x` unexpected"},
		{`echo "abc`, "1: syntax: `<EOF>` unexpected (expecting `\"`)"},
		{"( a", "1: syntax: `<EOF>` unexpected (expecting `)`)"},
		{"echo >", "1: syntax: `<EOF>` unexpected"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			var serr *Error
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, tt.want, serr.Error())
		})
	}
}

func TestParserRecoversAfterError(t *testing.T) {
	p := NewParser(NewStringInput("echo )\necho ok\n"), nil)
	_, err := p.Next()
	require.Error(t, err)

	cmd, err := p.Next()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(call("echo", "ok"), cmd))

	_, err = p.Next()
	assert.Equal(t, io.EOF, err)
}

func TestAssignment(t *testing.T) {
	name, val, ok := Lit("FOO=a b").Assignment()
	assert.True(t, ok)
	assert.Equal(t, "FOO", name)
	assert.Equal(t, "a b", val.Text)

	for _, s := range []string{"=x", "1A=x", "A", `"A"=x`, "A-B=x"} {
		_, _, ok := Lit(s).Assignment()
		assert.False(t, ok, s)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	srcs := []string{
		"a | b && c || d",
		"if a; then b; else c; fi",
		"while a; do b; done",
		"for x in 1 2; do echo $x; done",
		"( a; b )",
		"{ a; }",
		"echo $(ls | wc -l) 2>err",
		"f() { echo; }",
	}
	for _, src := range srcs {
		first, err := Parse(src)
		require.NoError(t, err, src)
		second, err := Parse(Format(first))
		require.NoError(t, err, Format(first))
		assert.Empty(t, cmp.Diff(first, second), src)
	}
}

func FuzzParse(f *testing.F) {
	f.Add("echo ok | cat")
	f.Add("if a; then b; elif c; then d; fi")
	f.Add("for x in a b; do echo $x; done > out")
	f.Add("x=$(echo \"a b\")")
	f.Add("{ a & } 2>>log")
	f.Fuzz(func(t *testing.T, src string) {
		if len(src) > 256 {
			src = src[:256]
		}
		_, err := Parse(src)
		var serr *Error
		if err != nil && errors.As(err, &serr) && !strings.Contains(serr.Error(), "syntax:") {
			t.Fatalf("malformed syntax error %q", serr.Error())
		}
	})
}
