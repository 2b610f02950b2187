package arena_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-ash/pkg/core/arena"
)

func TestAllocWithinBlock(t *testing.T) {
	a := arena.New()
	p := a.Alloc(10)
	q := a.Alloc(20)
	assert.Len(t, p, 10)
	assert.Len(t, q, 20)
	assert.Equal(t, 10, cap(p), "allocations carry no spare capacity")
	assert.Equal(t, 30, a.Used())
	assert.Equal(t, 1, a.Blocks())
}

func TestAllocLinksNewBlock(t *testing.T) {
	a := arena.New()
	a.Alloc(arena.MinBlock - 4)
	big := a.Alloc(3 * arena.MinBlock)
	assert.Len(t, big, 3*arena.MinBlock)
	assert.Equal(t, 2, a.Blocks())
}

func TestRestoreReclaims(t *testing.T) {
	a := arena.New()
	a.Alloc(16)
	m := a.Mark()
	first := a.Alloc(8)
	a.Alloc(4 * arena.MinBlock)
	require.Equal(t, 2, a.Blocks())

	a.Restore(m)
	assert.Equal(t, 1, a.Blocks())
	assert.Equal(t, 16, a.Used())

	again := a.Alloc(8)
	assert.Same(t, &first[0], &again[0], "space after the mark is reused")
}

func TestRestoreNested(t *testing.T) {
	a := arena.New()
	outer := a.Mark()
	a.Alloc(100)
	inner := a.Mark()
	a.Alloc(2000)
	a.Restore(inner)
	assert.Equal(t, 100, a.Used())
	a.Restore(outer)
	assert.Equal(t, 0, a.Used())
}

func TestRestoreReleasedMarkPanics(t *testing.T) {
	a := arena.New()
	base := a.Mark()
	a.Alloc(arena.MinBlock)
	a.Alloc(8)
	m := a.Mark()
	a.Restore(base)
	assert.Panics(t, func() { a.Restore(m) })
}

func TestGrowInPlace(t *testing.T) {
	a := arena.New()
	p := a.Alloc(4)
	copy(p, "abcd")
	q := a.Grow(p, 4)
	require.Len(t, q, 8)
	assert.Same(t, &p[0], &q[0])
	assert.Equal(t, "abcd", string(q[:4]))
}

func TestGrowCopiesWhenNotFrontier(t *testing.T) {
	a := arena.New()
	p := a.Alloc(4)
	copy(p, "abcd")
	a.Alloc(1)
	q := a.Grow(p, 4)
	require.Len(t, q, 8)
	assert.NotSame(t, &p[0], &q[0])
	assert.Equal(t, "abcd", string(q[:4]))
}

func TestGrowPastBlock(t *testing.T) {
	a := arena.New()
	p := a.Alloc(arena.MinBlock - 2)
	p[0] = 'x'
	q := a.Grow(p, 10)
	require.Len(t, q, arena.MinBlock+8)
	assert.Equal(t, byte('x'), q[0])
	assert.Equal(t, 2, a.Blocks())

	// q now owns its whole block and is grown by replacing the block
	r := a.Grow(q, 4*arena.MinBlock)
	assert.Equal(t, byte('x'), r[0])
	assert.Equal(t, 2, a.Blocks())
}

func TestBuilder(t *testing.T) {
	a := arena.New()
	b := a.NewBuilder()
	long := strings.Repeat("word ", 300)
	_, _ = b.WriteString(long)
	assert.Equal(t, len(long), b.Len())
	s := b.String()
	assert.Equal(t, long, s)

	b.Reset()
	_ = b.WriteByte('z')
	assert.Equal(t, "z", b.String())
	assert.Equal(t, long, s, "String returns an independent copy")
}

func TestBuilderInterleaved(t *testing.T) {
	a := arena.New()
	outer := a.NewBuilder()
	_, _ = outer.WriteString("echo ")
	inner := a.NewBuilder()
	_, _ = inner.WriteString("nested")
	_, _ = outer.WriteString("tail")
	assert.Equal(t, "echo tail", outer.String())
	assert.Equal(t, "nested", inner.String())
}
