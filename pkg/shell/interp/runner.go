// Package interp evaluates parsed shell commands.
//
// A Runner is one shell: exit status, file descriptor table, redirection
// and loop stacks, variables, functions and working directory. Subshells,
// pipeline stages, background jobs and command substitutions each run on
// a clone of their parent Runner, so that nothing they change is visible
// to the parent.
package interp

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/core/arena"
	"github.com/rcarmo/go-ash/pkg/shell/expand"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
	"github.com/rcarmo/go-ash/pkg/shell/vars"
)

// Runner holds the state of a shell.
type Runner struct {
	// Vars holds the shell variables.
	Vars *vars.Store

	fds    map[int]*os.File
	redirs []redirEntry
	loops  []arena.Mark
	funcs  map[string]syntax.Command
	dir    string
	arena  *arena.Arena
	intr   *Interrupts

	sources []*os.File
	jobs    []*job

	status int
	lineno int

	name        string
	interactive bool
	xtrace      bool
	noexec      bool
	colored     bool
	diag        *color.Color
	editor      *lineEditor

	// forked is set on clones: they report some failures differently.
	forked  bool
	rootPID int

	// owned files are closed by Close; pumps copy between them and
	// non-file streams.
	owned []*os.File
	pumps *sync.WaitGroup
}

type job struct {
	done   chan struct{}
	status int
}

// Option configures a Runner.
type Option func(*Runner)

// Interactive marks the shell as reading commands from a user.
func Interactive(b bool) Option {
	return func(r *Runner) { r.interactive = b }
}

// XTrace enables tracing of simple commands, as with set -x.
func XTrace(b bool) Option {
	return func(r *Runner) { r.xtrace = b }
}

// NoExec makes the shell parse commands without running them.
func NoExec(b bool) Option {
	return func(r *Runner) { r.noexec = b }
}

// Env seeds the variable store from NAME=value pairs.
func Env(environ []string) Option {
	return func(r *Runner) { r.Vars = vars.FromEnviron(environ) }
}

// Dir sets the working directory.
func Dir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

// Name sets the prefix of diagnostics.
func Name(name string) Option {
	return func(r *Runner) { r.name = name }
}

// Color highlights error diagnostics.
func Color(b bool) Option {
	return func(r *Runner) { r.colored = b }
}

// New returns a Runner whose descriptors 0, 1 and 2 are taken from stdio.
// Streams that are not files are bridged through pipes; Close flushes
// them.
func New(stdio *core.Stdio, opts ...Option) (*Runner, error) {
	r := &Runner{
		name:    "ash",
		fds:     make(map[int]*os.File),
		funcs:   make(map[string]syntax.Command),
		arena:   arena.New(),
		intr:    &Interrupts{},
		rootPID: os.Getpid(),
		pumps:   &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Vars == nil {
		r.Vars = vars.FromEnviron(os.Environ())
	}
	if r.dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		r.dir = wd
	}
	if _, ok := r.Vars.Lookup("PWD"); !ok {
		_ = r.Vars.Set("PWD", r.dir, vars.Exported)
	}
	if r.colored {
		r.diag = color.New(color.FgRed)
		r.diag.EnableColor()
	}
	if err := r.attach(stdio); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Runner) attach(stdio *core.Stdio) error {
	in, err := r.reader(stdio.In)
	if err != nil {
		return err
	}
	r.fds[0] = in
	out, err := r.writer(stdio.Out)
	if err != nil {
		return err
	}
	r.fds[1] = out
	if stdio.Err == stdio.Out {
		r.fds[2] = out
		return nil
	}
	errf, err := r.writer(stdio.Err)
	if err != nil {
		return err
	}
	r.fds[2] = errf
	return nil
}

func (r *Runner) reader(src io.Reader) (*os.File, error) {
	if f, ok := src.(*os.File); ok && f != nil {
		return f, nil
	}
	if src == nil {
		f, err := os.Open(os.DevNull)
		if err == nil {
			r.owned = append(r.owned, f)
		}
		return f, err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	r.owned = append(r.owned, pr)
	go func() {
		_, _ = io.Copy(pw, src)
		pw.Close()
	}()
	return pr, nil
}

func (r *Runner) writer(dst io.Writer) (*os.File, error) {
	if f, ok := dst.(*os.File); ok && f != nil {
		return f, nil
	}
	if dst == nil {
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err == nil {
			r.owned = append(r.owned, f)
		}
		return f, err
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	r.owned = append(r.owned, pw)
	r.pumps.Add(1)
	go func() {
		defer r.pumps.Done()
		_, _ = io.Copy(dst, pr)
		pr.Close()
	}()
	return pw, nil
}

// Close releases the Runner's descriptors and waits until output written
// to non-file streams has been copied out.
func (r *Runner) Close() error {
	if r.editor != nil {
		r.editor.Close()
	}
	for _, f := range r.owned {
		f.Close()
	}
	r.owned = nil
	if r.pumps != nil {
		r.pumps.Wait()
	}
	return nil
}

// Stdin returns the file the shell has as descriptor 0.
func (r *Runner) Stdin() *os.File {
	return r.fds[0]
}

// Status returns the exit status of the last command.
func (r *Runner) Status() int {
	return r.status
}

// Dir returns the working directory.
func (r *Runner) Dir() string {
	return r.dir
}

// Interrupts returns the interrupt layer shared by the Runner and its
// subshells.
func (r *Runner) Interrupts() *Interrupts {
	return r.intr
}

// Interrupt reports a SIGINT to the shell.
func (r *Runner) Interrupt() {
	r.intr.Notify()
}

// subshell returns an isolated copy of r for running a command as if in a
// forked child.
func (r *Runner) subshell() *Runner {
	sub := *r
	sub.Vars = r.Vars.Clone()
	sub.fds = maps.Clone(r.fds)
	sub.funcs = maps.Clone(r.funcs)
	sub.arena = arena.New()
	sub.redirs = nil
	sub.loops = nil
	sub.sources = nil
	sub.jobs = nil
	sub.owned = nil
	sub.pumps = nil
	sub.editor = nil
	sub.forked = true
	return &sub
}

// dupFds gives r private duplicates of its descriptors so that it can
// outlive the parent's redirections.
func (r *Runner) dupFds() {
	for fd, f := range r.fds {
		if f == nil {
			continue
		}
		nfd, err := unix.FcntlInt(f.Fd(), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			continue
		}
		dup := os.NewFile(uintptr(nfd), f.Name())
		r.fds[fd] = dup
		r.owned = append(r.owned, dup)
	}
}

func (r *Runner) closeOwned() {
	for _, f := range r.owned {
		f.Close()
	}
	r.owned = nil
}

func (r *Runner) stdio() *core.Stdio {
	return &core.Stdio{In: r.fds[0], Out: r.fds[1], Err: r.fds[2]}
}

// errorf writes a diagnostic prefixed with the shell's name.
func (r *Runner) errorf(format string, args ...any) {
	fmt.Fprintf(r.fds[2], "%s: "+format, append([]any{r.name}, args...)...)
}

// report prints the diagnostic for an error that aborted a command.
func (r *Runner) report(err error) {
	msg := err.Error()
	if r.diag != nil {
		msg = r.diag.Sprint(msg)
	}
	r.errorf("%s\n", msg)
}

type runnerEnv struct {
	r *Runner
}

func (e runnerEnv) Get(name string) (string, bool) {
	switch name {
	case "?":
		return strconv.Itoa(e.r.status), true
	case "$":
		return strconv.Itoa(e.r.rootPID), true
	case "LINENO":
		return strconv.Itoa(e.r.lineno), true
	}
	return e.r.Vars.Lookup(name)
}

func (r *Runner) expandConfig() *expand.Config {
	return &expand.Config{
		Env:      runnerEnv{r},
		CmdSubst: r.cmdSubst,
		Arena:    r.arena,
	}
}
