package ash_test

import (
	"path/filepath"
	"testing"

	"github.com/rcarmo/go-ash/pkg/applets/ash"
	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/testutil"
)

func TestAsh(t *testing.T) {
	tests := []testutil.AppletTestCase{
		{
			Name:     "empty_stdin",
			Args:     []string{},
			WantCode: core.ExitSuccess,
		},
		{
			Name:     "stdin_script",
			Args:     []string{},
			Input:    "echo ok\nfalse\n",
			WantCode: core.ExitFailure,
			WantOut:  "ok\n",
		},
		{
			Name:     "stdin_dash",
			Args:     []string{"-"},
			Input:    "echo dash\n",
			WantCode: core.ExitSuccess,
			WantOut:  "dash\n",
		},
		{
			Name:     "missing_command_string",
			Args:     []string{"-c"},
			WantCode: core.ExitUsage,
		},
		{
			Name:     "bad_option",
			Args:     []string{"-z"},
			WantCode: core.ExitUsage,
		},
		{
			Name:       "help",
			Args:       []string{"--help"},
			WantCode:   core.ExitSuccess,
			WantOutSub: "usage: ash",
		},
		{
			Name:     "basic",
			Args:     []string{"-c", "echo ok"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "assignment",
			Args:     []string{"-c", "FOO=bar; echo $FOO"},
			WantCode: core.ExitSuccess,
			WantOut:  "bar\n",
		},
		{
			Name:     "if_else",
			Args:     []string{"-c", "if true; then echo ok; else echo no; fi"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "pipeline",
			Args:     []string{"-c", "echo ok | cat"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "redirect",
			Args:     []string{"-c", "echo ok > out.txt"},
			WantCode: core.ExitSuccess,
			Check: func(t *testing.T, dir string) {
				testutil.AssertFileExists(t, filepath.Join(dir, "out.txt"))
				testutil.AssertFileContent(t, filepath.Join(dir, "out.txt"), "ok\n")
			},
		},
		{
			Name:     "while_loop",
			Args:     []string{"-c", "while true; do echo ok; break; done"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "for_loop",
			Args:     []string{"-c", "for x in a b; do echo $x; done"},
			WantCode: core.ExitSuccess,
			WantOut:  "a\nb\n",
		},
		{
			Name:     "test_builtin",
			Args:     []string{"-c", "if test -n foo; then echo ok; else echo no; fi"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "test_brackets",
			Args:     []string{"-c", "if [ foo = foo ]; then echo ok; else echo no; fi"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "command_sub",
			Args:     []string{"-c", "echo $(echo hello)"},
			WantCode: core.ExitSuccess,
			WantOut:  "hello\n",
		},
		{
			Name:     "environment_imported",
			Args:     []string{"-c", "echo $GREETING; sh -c 'echo $GREETING'"},
			Env:      map[string]string{"GREETING": "hi"},
			WantCode: core.ExitSuccess,
			WantOut:  "hi\nhi\n",
		},
		{
			Name:     "export_var",
			Args:     []string{"-c", "export FOO=bar; echo $FOO"},
			WantCode: core.ExitSuccess,
			WantOut:  "bar\n",
		},
		{
			Name:     "function_def",
			Args:     []string{"-c", "greet() { echo hello; }; greet"},
			WantCode: core.ExitSuccess,
			WantOut:  "hello\n",
		},
		{
			Name:     "test_file_exists",
			Args:     []string{"-c", "if [ -e data ]; then echo yes; fi"},
			Files:    map[string]string{"data": "x"},
			WantCode: core.ExitSuccess,
			WantOut:  "yes\n",
		},
		{
			Name:     "colon_noop",
			Args:     []string{"-c", ":; echo ok"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "eval_builtin",
			Args:     []string{"-c", "CMD=test; eval echo $CMD"},
			WantCode: core.ExitSuccess,
			WantOut:  "test\n",
		},
		{
			Name:     "exec_builtin",
			Args:     []string{"-c", "exec echo ok; echo no"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
		},
		{
			Name:     "set_x_builtin",
			Args:     []string{"-c", "set -x; echo ok"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
			WantErr:  "+ echo ok",
		},
		{
			Name:     "xtrace_option",
			Args:     []string{"-x", "-c", "echo ok"},
			WantCode: core.ExitSuccess,
			WantOut:  "ok\n",
			WantErr:  "+ echo ok",
		},
		{
			Name:     "parse_only",
			Args:     []string{"-n", "-c", "echo ok > out.txt"},
			WantCode: core.ExitSuccess,
			Check: func(t *testing.T, dir string) {
				testutil.AssertFileNotExists(t, filepath.Join(dir, "out.txt"))
			},
		},
		{
			Name:     "parse_only_syntax_error",
			Args:     []string{"-n", "-c", "fi"},
			WantCode: core.ExitUsage,
			WantErr:  "ash: 1: syntax: `fi` unexpected",
		},
		{
			Name:     "exit_status",
			Args:     []string{"-c", "exit 7"},
			WantCode: 7,
		},
		{
			Name:     "not_found",
			Args:     []string{"-c", "no-such-command-here"},
			WantCode: core.ExitNotFound,
			WantErr:  "ash: no-such-command-here: command not found",
		},
		{
			Name:     "script_file",
			Args:     []string{"script.sh"},
			Files:    map[string]string{"script.sh": "# comment\necho from script\nexit 4\n"},
			WantCode: 4,
			WantOut:  "from script\n",
		},
		{
			Name:     "script_missing",
			Args:     []string{"nope.sh"},
			WantCode: core.ExitNotFound,
			WantErr:  "ash: can't open nope.sh",
		},
		{
			Name:     "script_reads_stdin",
			Args:     []string{"script.sh"},
			Files:    map[string]string{"script.sh": "read line\necho got $line\n"},
			Input:    "data\n",
			WantCode: core.ExitSuccess,
			WantOut:  "got data\n",
		},
		{
			Name:     "multiline_command",
			Args:     []string{"-c", "for x in a b\ndo\n  echo $x\ndone"},
			WantCode: core.ExitSuccess,
			WantOut:  "a\nb\n",
		},
		{
			Name:     "line_continuation",
			Args:     []string{"-c", "echo a \\\nb"},
			WantCode: core.ExitSuccess,
			WantOut:  "a b\n",
		},
	}
	testutil.RunAppletTests(t, ash.Run, tests)
}

func TestAshScriptByPath(t *testing.T) {
	script := testutil.TempFile(t, "args.sh", "echo one\nno-such-command-here\nexit 3\n")
	out, errBuf, code := testutil.CaptureAndRun(t, ash.Run, []string{script}, "")
	testutil.AssertExitCode(t, code, 3)
	testutil.AssertOutput(t, out.String(), "one\n")
	testutil.AssertOutputContains(t, errBuf.String(), "command not found")
}
