package expand_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-ash/pkg/shell/expand"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
)

type mapEnv map[string]string

func (m mapEnv) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// parseWords returns the words of a single simple command.
func parseWords(t *testing.T, src string) []*syntax.Word {
	t.Helper()
	cmd, err := syntax.Parse(src)
	require.NoError(t, err)
	exec, ok := cmd.(*syntax.Exec)
	require.True(t, ok, "%q is not a simple command", src)
	return exec.Args
}

func config(env mapEnv) *expand.Config {
	return &expand.Config{
		Env: env,
		CmdSubst: func(_ context.Context, cmd syntax.Command) (string, error) {
			// echo-like: the substitution prints its arguments
			return env["OUT:"+syntax.Format(cmd)], nil
		},
	}
}

func TestFields(t *testing.T) {
	env := mapEnv{
		"A":             "one",
		"SP":            "  a  b  ",
		"EMPTY":         "",
		"?":             "3",
		"$":             "42",
		"OUT:echo hi":   "hi\n",
		"OUT:printf x":  "x\n\n",
		"OUT:echo a b":  "a b\n",
		"OUT:echo none": "",
	}
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"literal", "echo a b", []string{"echo", "a", "b"}},
		{"variable", "$A", []string{"one"}},
		{"braces", "${A}x", []string{"onex"}},
		{"adjacent text", "x${A}y$A", []string{"xoneyone"}},
		{"name ends at non-name char", "$A.b", []string{"one.b"}},
		{"special parameters", "$? $$", []string{"3", "42"}},
		{"lone dollar", "$ a$", []string{"$", "a$"}},
		{"unset expands to nothing", "$NOPE", nil},
		{"empty unquoted is dropped", "a $EMPTY b", []string{"a", "b"}},
		{"empty quoted is kept", `"$EMPTY" ''`, []string{"", ""}},
		{"split on ifs", "$SP", []string{"a", "b"}},
		{"quoted value not split", `"$SP"`, []string{"  a  b  "}},
		{"split joins neighbours", "x${SP}y", []string{"x", "a", "b", "y"}},
		{"single quotes are literal", `'$A \n'`, []string{`$A \n`}},
		{"backslash outside quotes", `a\ b \$A \\`, []string{"a b", "$A", `\`}},
		{"backslash inside double quotes", `"\$A \" \\ \x"`, []string{`$A " \ \x`}},
		{"mixed quoting", `a"b c"'d e'`, []string{"ab cd e"}},
		{"command substitution", "$(echo hi)", []string{"hi"}},
		{"one trailing newline stripped", `"$(printf x)"`, []string{"x\n"}},
		{"unquoted substitution split", "$(echo a b)", []string{"a", "b"}},
		{"quoted substitution kept", `"$(echo a b)"`, []string{"a b"}},
		{"empty substitution", "$(echo none)", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expand.Fields(context.Background(), config(env), parseWords(t, tt.src)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldsCustomIFS(t *testing.T) {
	env := mapEnv{"IFS": ":", "P": "/bin::/usr/bin:"}
	got, err := expand.Fields(context.Background(), config(env), parseWords(t, "$P")...)
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin", "/usr/bin"}, got)

	env = mapEnv{"IFS": "", "P": "a b"}
	got, err = expand.Fields(context.Background(), config(env), parseWords(t, "$P")...)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b"}, got)
}

func TestLiteral(t *testing.T) {
	env := mapEnv{"SP": "a  b", "OUT:echo f": "f\n"}
	words := parseWords(t, `x $SP "q"$(echo f).txt`)
	cfg := config(env)

	got, err := expand.Literal(context.Background(), cfg, words[1])
	require.NoError(t, err)
	assert.Equal(t, "a  b", got)

	got, err = expand.Literal(context.Background(), cfg, words[2])
	require.NoError(t, err)
	assert.Equal(t, "qf.txt", got)
}

func TestSubstError(t *testing.T) {
	boom := errors.New("boom")
	cfg := &expand.Config{
		Env: mapEnv{},
		CmdSubst: func(context.Context, syntax.Command) (string, error) {
			return "", boom
		},
	}
	_, err := expand.Fields(context.Background(), cfg, parseWords(t, "a $(b)")...)
	assert.ErrorIs(t, err, boom)

	_, err = expand.Fields(context.Background(), cfg, &syntax.Word{Text: "\x00"})
	assert.ErrorIs(t, err, expand.ErrSubst)
}
