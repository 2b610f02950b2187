package arena

// Builder accumulates a byte string in arena memory, growing the
// allocation as bytes are appended.
type Builder struct {
	a   *Arena
	buf []byte
	n   int
}

// NewBuilder returns an empty builder backed by a.
func (a *Arena) NewBuilder() *Builder {
	return &Builder{a: a}
}

// WriteByte appends c. It never fails.
func (b *Builder) WriteByte(c byte) error {
	if b.n == len(b.buf) {
		grow := len(b.buf)
		if grow < 32 {
			grow = 32
		}
		b.buf = b.a.Grow(b.buf, grow)
	}
	b.buf[b.n] = c
	b.n++
	return nil
}

// WriteString appends s. It never fails.
func (b *Builder) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		_ = b.WriteByte(s[i])
	}
	return len(s), nil
}

// Len returns the number of bytes written.
func (b *Builder) Len() int {
	return b.n
}

// Bytes returns the accumulated bytes. They live in arena memory.
func (b *Builder) Bytes() []byte {
	return b.buf[:b.n]
}

// String returns a copy of the accumulated bytes that outlives the arena.
func (b *Builder) String() string {
	return string(b.buf[:b.n])
}

// Reset empties the builder, keeping its allocation.
func (b *Builder) Reset() {
	b.n = 0
}
