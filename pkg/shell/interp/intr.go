package interp

import (
	"context"
	"sync"
)

// Interrupts defers and delivers SIGINT. While the counter raised by Off
// is above zero an interrupt is only recorded; it is delivered when the
// counter returns to zero. Delivery cancels the context of the command
// that is currently armed. With no command armed the interrupt is dropped.
//
// A Runner and every subshell cloned from it share one Interrupts.
type Interrupts struct {
	mu      sync.Mutex
	depth   int
	pending bool
	cancel  context.CancelFunc
}

// Off defers interrupts until the matching On.
func (i *Interrupts) Off() {
	i.mu.Lock()
	i.depth++
	i.mu.Unlock()
}

// On undoes one Off and delivers a pending interrupt when the counter
// reaches zero.
func (i *Interrupts) On() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.depth > 0 {
		i.depth--
	}
	if i.depth == 0 && i.pending {
		i.deliver()
	}
}

// ForceOn clears the counter and delivers a pending interrupt.
func (i *Interrupts) ForceOn() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.depth = 0
	if i.pending {
		i.deliver()
	}
}

// Notify reports a SIGINT. It is safe to call from a signal goroutine.
func (i *Interrupts) Notify() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.depth > 0 {
		i.pending = true
		return
	}
	i.deliver()
}

// Pending reports whether an interrupt is waiting for delivery.
func (i *Interrupts) Pending() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pending
}

func (i *Interrupts) deliver() {
	i.pending = false
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}
}

func (i *Interrupts) arm(cancel context.CancelFunc) {
	i.mu.Lock()
	i.cancel = cancel
	i.mu.Unlock()
}

func (i *Interrupts) disarm() {
	i.mu.Lock()
	i.cancel = nil
	i.mu.Unlock()
}

func (i *Interrupts) reset() {
	i.mu.Lock()
	i.depth = 0
	i.pending = false
	i.mu.Unlock()
}
