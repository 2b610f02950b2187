package interp

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/rcarmo/go-ash/pkg/core"
)

// statusPipe is the status of a command killed by SIGPIPE. A loop whose
// body ends with it stops.
var statusPipe = core.SignalStatus(int(unix.SIGPIPE))

// pushLoop enters a loop. The arena mark taken here is restored at the top
// of every iteration.
func (r *Runner) pushLoop() {
	r.loops = append(r.loops, r.arena.Mark())
}

func (r *Runner) loopTop() {
	r.arena.Restore(r.loops[len(r.loops)-1])
}

func (r *Runner) popLoop() {
	m := r.loops[len(r.loops)-1]
	r.loops = r.loops[:len(r.loops)-1]
	r.arena.Restore(m)
}

// loopNext decides what the innermost loop does with err, returned from
// its condition or body. It reports whether the loop goes on to its next
// iteration; otherwise the loop ends and returns the remaining error.
// break N and continue N with N above one end this loop and travel on
// with N-1.
func loopNext(err error) (bool, error) {
	var lc *loopControl
	if !errors.As(err, &lc) {
		return false, err
	}
	if lc.n > 1 {
		return false, &loopControl{cont: lc.cont, n: lc.n - 1}
	}
	return lc.cont, nil
}
