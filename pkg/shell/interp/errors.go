package interp

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInterrupt is returned when SIGINT is delivered to a running command.
var ErrInterrupt = errors.New("interrupt")

// ExitStatus is returned by the exit builtin to end the shell, or the
// innermost subshell, with the given status.
type ExitStatus int

func (s ExitStatus) Error() string {
	return "exit status " + strconv.Itoa(int(s))
}

// RuntimeError is a failure raised while evaluating, such as assigning to
// a read-only variable. It aborts the current command line with status 2.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string { return e.Err.Error() }

func (e *RuntimeError) Unwrap() error { return e.Err }

// FatalError ends the shell after a diagnostic.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// loopControl carries break and continue out to the enclosing loops.
type loopControl struct {
	cont bool
	n    int
}

func (l *loopControl) Error() string {
	if l.cont {
		return fmt.Sprintf("continue %d", l.n)
	}
	return fmt.Sprintf("break %d", l.n)
}

func runtimeErrorf(format string, args ...any) error {
	return &RuntimeError{Err: fmt.Errorf(format, args...)}
}
