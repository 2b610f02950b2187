package interp

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/rcarmo/go-ash/pkg/core/fs"
	"github.com/rcarmo/go-ash/pkg/shell/syntax"
)

// redirEntry remembers what a redirection replaced.
type redirEntry struct {
	fd     int
	saved  *os.File
	had    bool
	opened *os.File
}

var redirFlags = map[syntax.RedirMode]int{
	syntax.RedirRead:   os.O_RDONLY,
	syntax.RedirWrite:  os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	syntax.RedirAppend: os.O_WRONLY | os.O_CREATE | os.O_APPEND,
}

// maxRedirFd bounds descriptor numbers when the open file limit is
// unknown or unlimited.
const maxRedirFd = 1 << 16

// badFdError is returned for a redirection to a descriptor number the
// process could never hold.
type badFdError int

func (e badFdError) Error() string {
	return fmt.Sprintf("%d: bad file descriptor", int(e))
}

// fdLimit returns the first descriptor number a redirection may not use.
func fdLimit() int {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil || rl.Cur > maxRedirFd {
		return maxRedirFd
	}
	return int(rl.Cur)
}

// pushRedirect opens name relative to the working directory and installs
// it as fd. Files are created with mode 0644.
func (r *Runner) pushRedirect(fd int, name string, mode syntax.RedirMode) error {
	if fd < 0 || fd >= fdLimit() {
		return badFdError(fd)
	}
	r.intr.Off()
	defer r.intr.On()
	f, err := fs.OpenFile(r.dir, name, redirFlags[mode], 0644)
	if err != nil {
		return err
	}
	saved, had := r.fds[fd]
	r.redirs = append(r.redirs, redirEntry{fd: fd, saved: saved, had: had, opened: f})
	r.fds[fd] = f
	return nil
}

// popRedirect undoes the most recent redirection. It does nothing when
// the stack is empty.
func (r *Runner) popRedirect() {
	if len(r.redirs) == 0 {
		return
	}
	r.intr.Off()
	defer r.intr.On()
	e := r.redirs[len(r.redirs)-1]
	r.redirs = r.redirs[:len(r.redirs)-1]
	e.opened.Close()
	if e.had {
		r.fds[e.fd] = e.saved
	} else {
		delete(r.fds, e.fd)
	}
}

// unwindRedirects pops every redirection.
func (r *Runner) unwindRedirects() {
	for len(r.redirs) > 0 {
		r.popRedirect()
	}
}
