package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/shell/expand"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
)

var statusInterrupted = core.SignalStatus(int(unix.SIGINT))

// eval runs c and records its status as $?. A cancelled context stops
// evaluation at the next node with ErrInterrupt.
func (r *Runner) eval(ctx context.Context, c syntax.Command) (int, error) {
	if ctx.Err() != nil {
		return statusInterrupted, ErrInterrupt
	}
	st, err := r.evalNode(ctx, c)
	r.status = st
	return st, err
}

func (r *Runner) evalNode(ctx context.Context, c syntax.Command) (int, error) {
	switch x := c.(type) {
	case nil:
		return r.status, nil
	case *syntax.Exec:
		return r.evalExec(ctx, x)
	case *syntax.BinaryCmd:
		return r.evalBinary(ctx, x)
	case *syntax.UnaryCmd:
		switch x.Op {
		case syntax.Not:
			st, err := r.eval(ctx, x.Cmd)
			if err != nil {
				return st, err
			}
			if st == 0 {
				return core.ExitFailure, nil
			}
			return core.ExitSuccess, nil
		case syntax.Subshell:
			return r.subshell().runSub(ctx, x.Cmd)
		default:
			return r.eval(ctx, x.Cmd)
		}
	case *syntax.Redirect:
		return r.evalRedirect(ctx, x)
	case *syntax.If:
		st, err := r.eval(ctx, x.Cond)
		if err != nil {
			return st, err
		}
		if st == 0 {
			return r.eval(ctx, x.Then)
		}
		if x.Else != nil {
			return r.eval(ctx, x.Else)
		}
		return core.ExitSuccess, nil
	case *syntax.Loop:
		return r.evalLoop(ctx, x)
	case *syntax.For:
		return r.evalFor(ctx, x)
	case *syntax.FuncDecl:
		r.funcs[x.Name] = x.Body
		return core.ExitSuccess, nil
	}
	panic(fmt.Sprintf("interp: unexpected command %T", c))
}

func (r *Runner) evalBinary(ctx context.Context, x *syntax.BinaryCmd) (int, error) {
	switch x.Op {
	case syntax.Pipe:
		return r.evalPipe(ctx, x)
	case syntax.Background:
		r.background(ctx, x.X)
		if x.Y == nil {
			return core.ExitSuccess, nil
		}
		return r.eval(ctx, x.Y)
	}
	st, err := r.eval(ctx, x.X)
	if err != nil {
		return st, err
	}
	switch {
	case x.Y == nil:
		return st, nil
	case x.Op == syntax.AndIf && st != 0:
		return st, nil
	case x.Op == syntax.OrIf && st == 0:
		return st, nil
	}
	return r.eval(ctx, x.Y)
}

func (r *Runner) evalExec(ctx context.Context, x *syntax.Exec) (int, error) {
	cfg := r.expandConfig()
	args := x.Args
	for len(args) > 0 {
		name, value, ok := args[0].Assignment()
		if !ok {
			break
		}
		val, err := expand.Literal(ctx, cfg, value)
		if err != nil {
			return r.status, err
		}
		if err := r.Vars.Set(name, val, 0); err != nil {
			return core.ExitUsage, &RuntimeError{Err: err}
		}
		args = args[1:]
	}
	fields, err := expand.Fields(ctx, cfg, args...)
	if err != nil {
		return r.status, err
	}
	if len(fields) == 0 {
		return core.ExitSuccess, nil
	}
	if r.xtrace {
		fmt.Fprintf(r.fds[2], "%s%s\n", r.Vars.Get("PS4"), strings.Join(fields, " "))
	}
	return r.call(ctx, fields)
}

// call runs a function, a builtin or an external program, in that order.
func (r *Runner) call(ctx context.Context, args []string) (int, error) {
	if body, ok := r.funcs[args[0]]; ok {
		return r.eval(ctx, body)
	}
	if fn, ok := builtins[args[0]]; ok {
		return fn(ctx, r, r.stdio(), args)
	}
	return r.spawn(ctx, args)
}

// runSub runs c as a subshell and turns the errors that end a subshell
// into its status. Interrupts still propagate.
func (r *Runner) runSub(ctx context.Context, c syntax.Command) (int, error) {
	st, err := r.eval(ctx, c)
	return r.exitSub(st, err)
}

func (r *Runner) exitSub(st int, err error) (int, error) {
	var es ExitStatus
	var lc *loopControl
	switch {
	case err == nil:
		return st, nil
	case errors.As(err, &es):
		return int(es), nil
	case errors.Is(err, ErrInterrupt):
		return statusInterrupted, err
	case errors.As(err, &lc):
		return st, nil
	}
	r.report(err)
	return core.ExitUsage, nil
}

// evalPipe connects the two sides of a pipe. The left side runs on its own
// goroutine; the status is that of the right side.
func (r *Runner) evalPipe(ctx context.Context, x *syntax.BinaryCmd) (int, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return core.ExitUsage, runtimeErrorf("pipe call failed: %v", err)
	}
	left := r.subshell()
	left.fds[1] = pw
	right := r.subshell()
	right.fds[0] = pr

	var g errgroup.Group
	g.Go(func() error {
		defer pw.Close()
		_, err := left.runSub(ctx, x.X)
		return err
	})
	st, err := right.runSub(ctx, x.Y)
	pr.Close()
	if lerr := g.Wait(); err == nil {
		err = lerr
	}
	return st, err
}

// background starts c on a clone with its own descriptors and records it
// for wait. Interrupts of the foreground do not reach it.
func (r *Runner) background(ctx context.Context, c syntax.Command) {
	sub := r.subshell()
	sub.dupFds()
	j := &job{done: make(chan struct{})}
	r.reapJobs()
	r.jobs = append(r.jobs, j)
	bctx := context.WithoutCancel(ctx)
	go func() {
		defer close(j.done)
		defer sub.closeOwned()
		j.status, _ = sub.runSub(bctx, c)
	}()
}

// reapJobs forgets jobs that have already finished.
func (r *Runner) reapJobs() {
	live := r.jobs[:0]
	for _, j := range r.jobs {
		select {
		case <-j.done:
		default:
			live = append(live, j)
		}
	}
	clear(r.jobs[len(live):])
	r.jobs = live
}

// waitJobs waits for every background job and returns the status of the
// last one. An interrupt stops the wait; unfinished jobs stay recorded.
func (r *Runner) waitJobs(ctx context.Context) (int, error) {
	st := core.ExitSuccess
	for len(r.jobs) > 0 {
		j := r.jobs[0]
		select {
		case <-j.done:
		case <-ctx.Done():
			return statusInterrupted, ErrInterrupt
		}
		st = j.status
		r.jobs = r.jobs[1:]
	}
	r.jobs = nil
	return st, nil
}

// cmdSubst runs cmd in a subshell and returns everything it writes to its
// standard output. Interrupts are deferred only while the pipe and the
// clone are set up and while the clone is collected; the body itself can
// be interrupted.
func (r *Runner) cmdSubst(ctx context.Context, cmd syntax.Command) (string, error) {
	r.intr.Off()
	pr, pw, err := os.Pipe()
	if err != nil {
		r.intr.On()
		return "", runtimeErrorf("pipe call failed: %v", err)
	}
	sub := r.subshell()
	sub.fds[1] = pw
	r.intr.On()

	var g errgroup.Group
	g.Go(func() error {
		defer pw.Close()
		_, err := sub.runSub(ctx, cmd)
		return err
	})
	out, rerr := io.ReadAll(pr)
	pr.Close()
	r.intr.Off()
	err = g.Wait()
	r.intr.On()
	if err != nil {
		return "", err
	}
	if rerr != nil {
		return "", runtimeErrorf("command substitution: %v", rerr)
	}
	return string(out), nil
}

func (r *Runner) evalRedirect(ctx context.Context, x *syntax.Redirect) (int, error) {
	name, err := expand.Literal(ctx, r.expandConfig(), x.File)
	if err != nil {
		return r.status, err
	}
	if err := r.pushRedirect(x.Fd, name, x.Mode); err != nil {
		var bad badFdError
		if errors.As(err, &bad) {
			r.errorf("%v\n", bad)
		} else {
			r.errorf("%s: %s\n", name, reason(err))
		}
		return core.ExitUsage, nil
	}
	defer r.popRedirect()
	return r.eval(ctx, x.Cmd)
}

func (r *Runner) evalLoop(ctx context.Context, x *syntax.Loop) (int, error) {
	r.pushLoop()
	defer r.popLoop()
	status := core.ExitSuccess
	for {
		r.loopTop()
		st, err := r.eval(ctx, x.Cond)
		if err != nil {
			next, err := loopNext(err)
			if next {
				continue
			}
			return st, err
		}
		if (st == 0) == x.Until {
			break
		}
		st, err = r.eval(ctx, x.Body)
		status = st
		if err != nil {
			next, err := loopNext(err)
			if next {
				continue
			}
			return st, err
		}
		if st == statusPipe {
			break
		}
	}
	return status, nil
}

func (r *Runner) evalFor(ctx context.Context, x *syntax.For) (int, error) {
	items, err := expand.Fields(ctx, r.expandConfig(), x.Words...)
	if err != nil {
		return r.status, err
	}
	r.pushLoop()
	defer r.popLoop()
	status := core.ExitSuccess
	for _, item := range items {
		r.loopTop()
		if err := r.Vars.Set(x.Name, item, 0); err != nil {
			return core.ExitUsage, &RuntimeError{Err: err}
		}
		st, err := r.eval(ctx, x.Body)
		status = st
		if err != nil {
			next, err := loopNext(err)
			if next {
				continue
			}
			return st, err
		}
		if st == statusPipe {
			break
		}
	}
	return status, nil
}

// reason returns the part of a file error worth printing.
func reason(err error) string {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
