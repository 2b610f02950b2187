package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"

	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
)

// Run reads commands from in and evaluates them one line at a time until
// the input ends or the shell exits. It returns the shell's exit status.
//
// Errors raised while a line runs are handled here: open redirections,
// loops and sourced files are unwound, a diagnostic is printed and $? is
// set to 2, or to 130 for an interrupt. The shell then reads the next
// line.
func (r *Runner) Run(ctx context.Context, in *syntax.Input) int {
	if r.interactive && in.Prompt == nil {
		in.Prompt = r.prompt
	}
	p := syntax.NewParser(in, r.arena)
	if err := r.repl(ctx, p, true); err != nil {
		var es ExitStatus
		if errors.As(err, &es) {
			r.status = int(es)
		}
	}
	return r.status
}

// RunInteractive reads commands through a line editor on the terminal.
// Prompts and editing go to the Runner's standard error.
func (r *Runner) RunInteractive(ctx context.Context) (int, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdout: r.fds[2],
		Stderr: r.fds[2],
	})
	if err != nil {
		return core.ExitFailure, err
	}
	r.editor = &lineEditor{rl: rl}
	in := syntax.NewInput(r.editor)
	in.Prompt = r.prompt
	return r.Run(ctx, in), nil
}

// repl evaluates commands from p. The top level arms every command for
// interrupts and recovers from errors; nested levels, for eval and
// sourced files, pass errors up.
func (r *Runner) repl(ctx context.Context, p *syntax.Parser, top bool) error {
	for {
		mark := r.arena.Mark()
		line := p.Input().Line()
		cmd, err := p.Next()
		if err == io.EOF {
			r.arena.Restore(mark)
			return nil
		}
		if err == nil && cmd != nil && !r.noexec {
			r.lineno = line
			_, err = r.evalTop(ctx, cmd, top)
		}
		r.arena.Restore(mark)
		if err == nil {
			continue
		}
		if !top {
			return err
		}
		if err := r.recoverFrom(err); err != nil {
			return err
		}
	}
}

func (r *Runner) evalTop(ctx context.Context, cmd syntax.Command, top bool) (int, error) {
	if !top {
		return r.eval(ctx, cmd)
	}
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.intr.arm(cancel)
	defer r.intr.disarm()
	return r.eval(cctx, cmd)
}

// recoverFrom resets the shell after err aborted a command line. It
// returns err again when the shell has to stop.
func (r *Runner) recoverFrom(err error) error {
	var es ExitStatus
	if errors.As(err, &es) {
		return err
	}
	r.unwindRedirects()
	r.loops = r.loops[:0]
	r.closeSources()
	r.intr.reset()

	var fe *FatalError
	switch {
	case errors.Is(err, ErrInterrupt):
		if r.interactive {
			fmt.Fprintln(r.fds[2])
		}
		r.status = statusInterrupted
	case errors.As(err, &fe):
		r.report(err)
		r.status = core.ExitUsage
		return ExitStatus(core.ExitUsage)
	default:
		r.report(err)
		r.status = core.ExitUsage
	}
	return nil
}

func (r *Runner) popSource(f *os.File) {
	for i := len(r.sources) - 1; i >= 0; i-- {
		if r.sources[i] == f {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			f.Close()
			return
		}
	}
}

// closeSources closes every file being read by source.
func (r *Runner) closeSources() {
	for _, f := range r.sources {
		f.Close()
	}
	r.sources = nil
}

// prompt returns PS1 for the first line of a command and PS2 for the
// lines that continue it.
func (r *Runner) prompt(which int) string {
	if which == 2 {
		return r.Vars.Get("PS2")
	}
	return r.Vars.Get("PS1")
}

// lineEditor adapts readline to syntax.LineReader.
type lineEditor struct {
	rl *readline.Instance
}

func (e *lineEditor) ReadLine(prompt string) (string, error) {
	e.rl.SetPrompt(prompt)
	line, err := e.rl.Readline()
	switch {
	case err == readline.ErrInterrupt:
		return "", ErrInterrupt
	case err != nil:
		return line, err
	}
	return line + "\n", nil
}

func (e *lineEditor) Close() error {
	return e.rl.Close()
}
