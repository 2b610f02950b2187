// Package ash implements the ash command: a POSIX-style shell reading
// commands from a string, a script file or standard input.
package ash

import (
	"context"
	"os"
	"os/signal"

	"github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/core/fs"
	"github.com/rcarmo/go-ash/pkg/shell/interp"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
)

const usage = "usage: ash [-inx] [-c string | script | -]"

// Run parses args, runs the shell and returns its exit status.
func Run(stdio *core.Stdio, args []string) int {
	opts := getopt.New()
	opts.SetProgram("ash")
	opts.SetParameters("[script | -]")
	command := opts.String('c', "", "read commands from string")
	interactive := opts.Bool('i', "force an interactive shell")
	noexec := opts.Bool('n', "read commands but do not execute them")
	xtrace := opts.Bool('x', "print commands before running them")
	help := opts.BoolLong("help", 'h', "show help")

	if err := opts.Getopt(append([]string{"ash"}, args...), nil); err != nil {
		return core.UsageError(stdio, "ash", err.Error())
	}
	if *help {
		stdio.Println(usage)
		opts.PrintOptions(stdio.Out)
		return core.ExitSuccess
	}

	wd, err := os.Getwd()
	if err != nil {
		return core.FileError(stdio, "ash", ".", err)
	}
	var in *syntax.Input
	var script *os.File
	switch rest := opts.Args(); {
	case opts.IsSet('c'):
		in = syntax.NewStringInput(*command)
	case len(rest) > 0 && rest[0] != "-":
		script, err = fs.Open(wd, rest[0])
		if err != nil {
			stdio.Errorf("ash: can't open %s\n", rest[0])
			return core.ExitNotFound
		}
		defer script.Close()
		in = syntax.NewReaderInput(script)
	default:
		*interactive = *interactive || isTerminal(stdio.In) && isTerminal(stdio.Err)
	}

	r, err := interp.New(stdio,
		interp.Interactive(*interactive),
		interp.XTrace(*xtrace),
		interp.NoExec(*noexec),
		interp.Dir(wd),
		interp.Color(*interactive && isTerminal(stdio.Err)),
	)
	if err != nil {
		return core.FileError(stdio, "ash", "stdio", err)
	}
	defer r.Close()

	stop := watchSignals(r, *interactive)
	defer stop()

	ctx := context.Background()
	switch {
	case in != nil:
		return r.Run(ctx, in)
	case *interactive && isTerminal(stdio.In):
		status, err := r.RunInteractive(ctx)
		if err != nil {
			stdio.Errorf("ash: %v\n", err)
		}
		return status
	}
	return r.Run(ctx, syntax.NewReaderInput(r.Stdin()))
}

// watchSignals forwards SIGINT to the shell. Interactive shells also
// catch SIGQUIT and SIGTSTP; catching rather than ignoring them leaves
// the default disposition in place for the programs the shell starts.
func watchSignals(r *interp.Runner, interactive bool) func() {
	ints := make(chan os.Signal, 1)
	signal.Notify(ints, os.Interrupt)
	quiet := make(chan os.Signal, 1)
	if interactive {
		signal.Notify(quiet, unix.SIGQUIT, unix.SIGTSTP)
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ints:
				r.Interrupt()
			case <-quiet:
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ints)
		signal.Stop(quiet)
		close(done)
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && f != nil && term.IsTerminal(int(f.Fd()))
}
