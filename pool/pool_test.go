package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type cell struct {
	cleared bool
	ref     *cell // simulates a strong reference that could form a cycle
}

func (c *cell) Clear() {
	c.cleared = true
	c.ref = nil
}

func TestPoolAddAndSize(t *testing.T) {
	p := New()
	require.Equal(t, 0, p.Size())
	p.Add(&cell{})
	p.Add(&cell{})
	require.Equal(t, 2, p.Size())
}

func TestStateClearerSweepsOnlyNewValues(t *testing.T) {
	p := New()
	before := &cell{}
	p.Add(before)

	sc := NewStateClearer(p)

	a := &cell{}
	b := &cell{}
	a.ref = b
	b.ref = a // a reference cycle formed "during the call"
	p.Add(a)
	p.Add(b)

	require.NoError(t, sc.Close())

	require.False(t, before.cleared, "value allocated before the StateClearer must survive")
	require.True(t, a.cleared)
	require.True(t, b.cleared)
	require.Nil(t, a.ref)
	require.Nil(t, b.ref)
}

func TestStateClearerUnlinksSweptValues(t *testing.T) {
	p := New()
	p.Add(&cell{})
	sc := NewStateClearer(p)
	p.Add(&cell{})
	p.Add(&cell{})
	require.Equal(t, 3, p.Size())
	require.NoError(t, sc.Close())
	require.Equal(t, 1, p.Size(), "swept values must leave the pool")
}

func TestStateClearerEscapeSkipsPinnedValues(t *testing.T) {
	p := New()
	sc := NewStateClearer(p)
	kept := &cell{}
	swept := &cell{}
	p.Add(kept)
	p.Add(swept)

	sc.Escape(func(c Clearer) bool { return c == kept })
	require.NoError(t, sc.Close())

	require.False(t, kept.cleared, "escaped value must survive the sweep")
	require.True(t, swept.cleared)
	require.Equal(t, 1, p.Size())
}

func TestStateClearerCloseIsIdempotent(t *testing.T) {
	p := New()
	sc := NewStateClearer(p)
	c := &cell{}
	p.Add(c)
	require.NoError(t, sc.Close())
	require.True(t, c.cleared)
	c.cleared = false
	require.NoError(t, sc.Close())
	require.False(t, c.cleared, "second Close must be a no-op")
}

func TestOverlappingStateClearersStack(t *testing.T) {
	p := New()
	outer := NewStateClearer(p)
	outerOnly := &cell{}
	p.Add(outerOnly)

	inner := NewStateClearer(p)
	innerOnly := &cell{}
	p.Add(innerOnly)

	require.NoError(t, inner.Close())
	require.True(t, innerOnly.cleared)
	require.False(t, outerOnly.cleared)

	require.NoError(t, outer.Close())
	require.True(t, outerOnly.cleared)
}
