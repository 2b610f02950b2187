package interp

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/rcarmo/go-ash/pkg/core"
	"github.com/rcarmo/go-ash/pkg/core/fs"
)

// spawn runs an external program with the Runner's descriptors,
// environment and working directory and waits for it.
func (r *Runner) spawn(ctx context.Context, args []string) (int, error) {
	path, err := fs.LookPath(r.dir, r.Vars.Get("PATH"), args[0])
	if err != nil {
		r.errorf("%s: command not found\n", args[0])
		return core.ExitNotFound, nil
	}
	r.intr.Off()
	defer r.intr.On()
	proc, err := os.StartProcess(path, args, &os.ProcAttr{
		Dir:   r.dir,
		Env:   r.Vars.Environ(),
		Files: r.files(),
	})
	if err != nil {
		r.errorf("%s: command not found\n", args[0])
		return core.ExitNotFound, nil
	}
	defer proc.Release()
	return r.wait(proc.Pid)
}

// files lays the descriptor table out as a slice; holes are closed in
// the child.
func (r *Runner) files() []*os.File {
	n := 3
	for fd := range r.fds {
		if fd >= n {
			n = fd + 1
		}
	}
	files := make([]*os.File, n)
	for fd, f := range r.fds {
		files[fd] = f
	}
	return files
}

// wait waits for pid to exit or stop and maps the outcome to a status.
func (r *Runner) wait(pid int) (int, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			if r.forked {
				return core.ExitFailure, ExitStatus(core.ExitFailure)
			}
			return core.ExitUsage, &FatalError{Err: fmt.Errorf("wait: %w", err)}
		}
		break
	}
	switch {
	case ws.Exited():
		return ws.ExitStatus(), nil
	case ws.Signaled():
		sig := ws.Signal()
		if sig != unix.SIGINT && !r.forked {
			r.errorf("%v\n", sig)
		}
		return core.SignalStatus(int(sig)), nil
	case ws.Stopped():
		fmt.Fprintf(r.fds[2], "%d suspended\n", pid)
		return core.SignalStatus(int(ws.StopSignal())), nil
	}
	return ws.ExitStatus(), nil
}
