// Package arena provides a stack-disciplined allocator for the shell's
// transient byte strings.
//
// Memory is handed out from a chain of blocks. A Mark captures the current
// allocation point and Restore releases everything allocated after it in
// one step, so a read-parse-evaluate cycle or a loop iteration can drop all
// of its scratch space at once. Marks must be restored in LIFO order.
//
// An Arena is not safe for concurrent use. Text that has to outlive a mark
// must be copied out (Builder.String does this).
package arena

// MinBlock is the smallest block the arena links in.
const MinBlock = 512

type block struct {
	prev *block
	buf  []byte
}

// Arena is a block-chained bump allocator.
type Arena struct {
	base *block
	head *block
	next int // first free byte in head.buf
}

// Mark records an allocation point.
type Mark struct {
	head *block
	next int
}

// New returns an arena with one base block.
func New() *Arena {
	b := &block{buf: make([]byte, MinBlock)}
	return &Arena{base: b, head: b}
}

// Alloc returns n bytes valid until the arena is restored to a mark taken
// before this call. The returned slice has no spare capacity.
func (a *Arena) Alloc(n int) []byte {
	if n < 0 {
		panic("arena: negative allocation")
	}
	if n > len(a.head.buf)-a.next {
		a.link(n)
	}
	p := a.head.buf[a.next : a.next+n : a.next+n]
	a.next += n
	return p
}

// link pushes a new block able to hold at least n bytes.
func (a *Arena) link(n int) {
	size := 2 * len(a.head.buf)
	if size < MinBlock {
		size = MinBlock
	}
	if size < n {
		size = n
	}
	a.head = &block{prev: a.head, buf: make([]byte, size)}
	a.next = 0
}

// Mark returns the current allocation point.
func (a *Arena) Mark() Mark {
	return Mark{head: a.head, next: a.next}
}

// Restore releases every allocation made since m was taken. Restoring a
// mark whose block has already been released panics.
func (a *Arena) Restore(m Mark) {
	for a.head != m.head {
		if a.head.prev == nil {
			panic("arena: restore of a released mark")
		}
		a.head = a.head.prev
	}
	a.next = m.next
}

// Grow extends p, which must be a slice returned by Alloc or Grow, by n
// bytes and returns the extended slice. When p is the most recent
// allocation and the head block has room the growth happens in place;
// otherwise the contents are copied into a fresh allocation.
func (a *Arena) Grow(p []byte, n int) []byte {
	if n < 0 {
		panic("arena: negative growth")
	}
	if len(p) == 0 {
		return a.Alloc(n)
	}
	start := a.next - len(p)
	if !a.frontier(p, start) {
		q := a.Alloc(len(p) + n)
		copy(q, p)
		return q
	}
	if n <= len(a.head.buf)-a.next {
		a.next += n
		return a.head.buf[start : a.next : a.next]
	}
	if start == 0 && a.head != a.base {
		// p owns the whole block: replace the block with a bigger one
		size := 2 * len(a.head.buf)
		if size < len(p)+n {
			size = len(p) + n
		}
		buf := make([]byte, size)
		copy(buf, p)
		a.head.buf = buf
		a.next = len(p) + n
		return buf[:a.next:a.next]
	}
	q := a.Alloc(len(p) + n)
	copy(q, p)
	return q
}

func (a *Arena) frontier(p []byte, start int) bool {
	if start < 0 {
		return false
	}
	return &a.head.buf[start] == &p[0]
}

// Used reports the number of bytes allocated in the head block; it exists
// for tests and diagnostics.
func (a *Arena) Used() int {
	return a.next
}

// Blocks reports the number of blocks currently linked.
func (a *Arena) Blocks() int {
	n := 0
	for b := a.head; b != nil; b = b.prev {
		n++
	}
	return n
}
