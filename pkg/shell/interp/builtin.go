package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/core/fs"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
	"github.com/rcarmo/go-ash/pkg/shell/vars"
)

type builtinFunc func(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error)

// builtins is filled in by init: several builtins evaluate commands,
// which refer back to the table.
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		".":        sourceBuiltin,
		":":        trueBuiltin,
		"[":        testBuiltin,
		"args":     argsBuiltin,
		"break":    breakBuiltin,
		"builtin":  builtinBuiltin,
		"cd":       cdBuiltin,
		"command":  commandBuiltin,
		"continue": breakBuiltin,
		"echo":     echoBuiltin,
		"eval":     evalBuiltin,
		"exec":     execBuiltin,
		"exit":     exitBuiltin,
		"export":   exportBuiltin,
		"false":    trueBuiltin,
		"fg":       fgBuiltin,
		"pwd":      pwdBuiltin,
		"read":     readBuiltin,
		"readonly": exportBuiltin,
		"set":      setBuiltin,
		"source":   sourceBuiltin,
		"test":     testBuiltin,
		"true":     trueBuiltin,
		"unset":    unsetBuiltin,
		"wait":     waitBuiltin,
	}
}

// Builtins returns the names of the builtin commands in order.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is a builtin command.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// writeStatus maps a failed write to a status; writing to a pipe whose
// reader has gone counts as being killed by SIGPIPE.
func writeStatus(err error) int {
	switch {
	case err == nil:
		return core.ExitSuccess
	case errors.Is(err, syscall.EPIPE):
		return statusPipe
	}
	return core.ExitFailure
}

func trueBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if args[0] == "false" {
		return core.ExitFailure, nil
	}
	return core.ExitSuccess, nil
}

func echoBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	args = args[1:]
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if newline {
		out += "\n"
	}
	_, err := io.WriteString(stdio.Out, out)
	return writeStatus(err), nil
}

func argsBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "argc: %d\n", len(args)-1)
	for _, arg := range args[1:] {
		fmt.Fprintf(&sb, "`%s`: %d\n", arg, len(arg))
	}
	_, err := io.WriteString(stdio.Out, sb.String())
	return writeStatus(err), nil
}

func pwdBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	_, err := fmt.Fprintln(stdio.Out, r.dir)
	return writeStatus(err), nil
}

// breakBuiltin implements break and continue. Outside a loop it does
// nothing; the count is clamped to the number of enclosing loops.
func breakBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	n := 1
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 1 {
			r.errorf("%s: bad number: %s\n", args[0], args[1])
			return core.ExitFailure, nil
		}
		n = v
	}
	if len(r.loops) == 0 {
		return core.ExitSuccess, nil
	}
	if n > len(r.loops) {
		n = len(r.loops)
	}
	return core.ExitSuccess, &loopControl{cont: args[0] == "continue", n: n}
}

func builtinBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		return core.ExitSuccess, nil
	}
	fn, ok := builtins[args[1]]
	if !ok {
		r.errorf("builtin: %s: not a shell builtin\n", args[1])
		return core.ExitFailure, nil
	}
	return fn(ctx, r, stdio, args[1:])
}

// commandBuiltin runs a builtin or program, bypassing functions.
func commandBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		return core.ExitSuccess, nil
	}
	if fn, ok := builtins[args[1]]; ok {
		return fn(ctx, r, stdio, args[1:])
	}
	return r.spawn(ctx, args[1:])
}

func cdBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) > 2 {
		r.errorf("cd: too many args\n")
		return core.ExitFailure, nil
	}
	var dest string
	show := false
	switch {
	case len(args) < 2:
		dest = r.Vars.Get("HOME")
	case args[1] == "-":
		dest = r.Vars.Get("OLDPWD")
		show = true
	default:
		dest = args[1]
	}
	if dest == "" {
		r.errorf("cd: no directory\n")
		return core.ExitFailure, nil
	}
	dir := filepath.Clean(fs.Resolve(r.dir, dest))
	if !fs.IsDir("", dir) {
		r.errorf("cd: can't cd to %s\n", dest)
		return core.ExitFailure, nil
	}
	if err := r.Vars.Set("OLDPWD", r.dir, vars.Exported); err != nil {
		return core.ExitUsage, &RuntimeError{Err: err}
	}
	if err := r.Vars.Set("PWD", dir, vars.Exported); err != nil {
		return core.ExitUsage, &RuntimeError{Err: err}
	}
	r.dir = dir
	if show {
		_, err := fmt.Fprintln(stdio.Out, dir)
		return writeStatus(err), nil
	}
	return core.ExitSuccess, nil
}

// evalBuiltin parses its joined arguments and runs them in the current
// shell.
func evalBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		return core.ExitSuccess, nil
	}
	in := syntax.NewStringInput(strings.Join(args[1:], " ") + "\n")
	if err := r.repl(ctx, syntax.NewParser(in, r.arena), false); err != nil {
		return r.status, err
	}
	return r.status, nil
}

// execBuiltin runs a program and then leaves the shell with its status.
func execBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		return core.ExitSuccess, nil
	}
	if _, err := fs.LookPath(r.dir, r.Vars.Get("PATH"), args[1]); err != nil {
		r.errorf("exec: %s: command not found\n", args[1])
		return core.ExitNotFound, nil
	}
	st, err := r.spawn(ctx, args[1:])
	if err != nil {
		return st, err
	}
	return st, ExitStatus(st)
}

func exitBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	st := r.status
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			r.errorf("exit: illegal number: %s\n", args[1])
			return core.ExitUsage, ExitStatus(core.ExitUsage)
		}
		st = v & 0xff
	}
	return st, ExitStatus(st)
}

// exportBuiltin implements export and readonly. Without arguments it
// lists the variables carrying the flag.
func exportBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	flag := vars.Exported
	if args[0] == "readonly" {
		flag = vars.ReadOnly
	}
	if len(args) < 2 {
		var sb strings.Builder
		r.Vars.Each(func(name string, v vars.Var) {
			if v.Flags&flag != 0 {
				fmt.Fprintf(&sb, "%s %s=%s\n", args[0], name, quote(v.Value))
			}
		})
		_, err := io.WriteString(stdio.Out, sb.String())
		return writeStatus(err), nil
	}
	for _, arg := range args[1:] {
		var err error
		if name, val, ok := strings.Cut(arg, "="); ok {
			err = r.Vars.Set(name, val, flag)
		} else {
			err = r.Vars.SetFlags(arg, flag)
		}
		if err != nil {
			return core.ExitUsage, &RuntimeError{Err: fmt.Errorf("%s: %w", args[0], err)}
		}
	}
	return core.ExitSuccess, nil
}

func unsetBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	for _, name := range args[1:] {
		if err := r.Vars.Unset(name); err != nil {
			return core.ExitUsage, &RuntimeError{Err: fmt.Errorf("unset: %w", err)}
		}
	}
	return core.ExitSuccess, nil
}

// setBuiltin toggles tracing with -x and +x and otherwise lists the
// variables.
func setBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		var sb strings.Builder
		r.Vars.Each(func(name string, v vars.Var) {
			fmt.Fprintf(&sb, "%s=%s\n", name, quote(v.Value))
		})
		_, err := io.WriteString(stdio.Out, sb.String())
		return writeStatus(err), nil
	}
	for _, arg := range args[1:] {
		switch arg {
		case "-x":
			r.xtrace = true
		case "+x":
			r.xtrace = false
		default:
			r.errorf("set: illegal option %s\n", arg)
			return core.ExitUsage, nil
		}
	}
	return core.ExitSuccess, nil
}

// quote renders s as a single-quoted shell word.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func fgBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		r.errorf("fg: too few args\n")
		return core.ExitFailure, nil
	}
	pid, err := strconv.Atoi(args[1])
	if err != nil || pid <= 0 {
		r.errorf("fg: cannot resume %s\n", args[1])
		return core.ExitFailure, nil
	}
	if err := unix.Kill(pid, unix.SIGCONT); err != nil {
		r.errorf("fg: cannot resume %d\n", pid)
		return core.ExitFailure, nil
	}
	r.intr.Off()
	defer r.intr.On()
	return r.wait(pid)
}

func waitBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	r.intr.ForceOn()
	return r.waitJobs(ctx)
}

// readBuiltin reads one line from standard input a byte at a time, so
// that nothing past the newline is consumed, and splits it on IFS into
// the named variables. The last variable receives the rest of the line.
func readBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	names := args[1:]
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	var line []byte
	eof := false
	buf := make([]byte, 1)
	for {
		n, err := stdio.In.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
			continue
		}
		if err != nil {
			eof = true
			break
		}
	}
	ifs, ok := r.Vars.Lookup("IFS")
	if !ok {
		ifs = vars.DefaultIFS
	}
	fields := splitFields(string(line), ifs, len(names))
	for i, name := range names {
		val := ""
		if i < len(fields) {
			val = fields[i]
		}
		if err := r.Vars.Set(name, val, 0); err != nil {
			return core.ExitUsage, &RuntimeError{Err: fmt.Errorf("read: %w", err)}
		}
	}
	if eof && len(line) == 0 {
		return core.ExitFailure, nil
	}
	return core.ExitSuccess, nil
}

// splitFields splits s on bytes of ifs into at most n fields.
func splitFields(s, ifs string, n int) []string {
	isSep := func(c byte) bool { return strings.IndexByte(ifs, c) >= 0 }
	var out []string
	i := 0
	for len(out) < n-1 {
		for i < len(s) && isSep(s[i]) {
			i++
		}
		if i == len(s) {
			return out
		}
		j := i
		for j < len(s) && !isSep(s[j]) {
			j++
		}
		out = append(out, s[i:j])
		i = j
	}
	if rest := strings.Trim(s[i:], ifs); rest != "" {
		out = append(out, rest)
	}
	return out
}

// sourceBuiltin reads and runs commands from a file in the current shell.
func sourceBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	if len(args) < 2 {
		r.errorf("%s: not enough arguments\n", args[0])
		return core.ExitFailure, nil
	}
	f, err := fs.Open(r.dir, args[1])
	if err != nil {
		return core.ExitUsage, runtimeErrorf("%s: can't open %s", args[0], args[1])
	}
	r.sources = append(r.sources, f)
	defer r.popSource(f)
	in := syntax.NewReaderInput(f)
	if err := r.repl(ctx, syntax.NewParser(in, r.arena), false); err != nil {
		return r.status, err
	}
	return r.status, nil
}

func testBuiltin(ctx context.Context, r *Runner, stdio *core.Stdio, args []string) (int, error) {
	ok, err := evalTest(r.dir, args)
	if err != nil {
		r.errorf("%s: %v\n", args[0], err)
		return core.ExitUsage, nil
	}
	if ok {
		return core.ExitSuccess, nil
	}
	return core.ExitFailure, nil
}

func evalTest(dir string, args []string) (bool, error) {
	if args[0] == "[" {
		if args[len(args)-1] != "]" {
			return false, fmt.Errorf("missing ]")
		}
		args = args[:len(args)-1]
	}
	args = args[1:]
	negate := false
	if len(args) > 1 && args[0] == "!" {
		negate = true
		args = args[1:]
	}
	ok, err := testExpr(dir, args)
	return ok != negate, err
}

func testExpr(dir string, args []string) (bool, error) {
	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		switch args[0] {
		case "-z":
			return args[1] == "", nil
		case "-n":
			return args[1] != "", nil
		case "-e":
			_, err := fs.Stat(dir, args[1])
			return err == nil, nil
		case "-f":
			info, err := fs.Stat(dir, args[1])
			return err == nil && info.Mode().IsRegular(), nil
		case "-d":
			return fs.IsDir(dir, args[1]), nil
		}
		return false, fmt.Errorf("%s: unary operator expected", args[0])
	case 3:
		left, op, right := args[0], args[1], args[2]
		switch op {
		case "=":
			return left == right, nil
		case "!=":
			return left != right, nil
		case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
			li, lerr := strconv.Atoi(left)
			ri, rerr := strconv.Atoi(right)
			if lerr != nil || rerr != nil {
				return false, fmt.Errorf("integer expected")
			}
			switch op {
			case "-eq":
				return li == ri, nil
			case "-ne":
				return li != ri, nil
			case "-lt":
				return li < ri, nil
			case "-le":
				return li <= ri, nil
			case "-gt":
				return li > ri, nil
			case "-ge":
				return li >= ri, nil
			}
		}
		return false, fmt.Errorf("%s: binary operator expected", op)
	}
	return false, fmt.Errorf("too many arguments")
}
