package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocBumpFitsWithinBlock(t *testing.T) {
	p := New(NewAllocManager(0))

	b, err := p.Alloc(64, 0)
	require.NoError(t, err)
	require.Len(t, b, 64)

	for i := range b {
		b[i] = byte(i)
	}
	assert.Equal(t, byte(10), b[10])
}

func TestAllocRejectsBadAlignment(t *testing.T) {
	p := New(NewAllocManager(0))

	_, err := p.Alloc(16, 3) // not a power of two
	assert.ErrorIs(t, err, ErrAlignTooLarge)

	_, err = p.Alloc(16, 2048) // exceeds MaxAlign
	assert.ErrorIs(t, err, ErrAlignTooLarge)
}

func TestCallocZeroesMemory(t *testing.T) {
	p := New(NewAllocManager(0))

	b, err := p.Calloc(8, 4)
	require.NoError(t, err)
	require.Len(t, b, 32)
	for _, v := range b {
		assert.Equal(t, byte(0), v)
	}
}

func TestStrdupAndMemdupCopyIndependently(t *testing.T) {
	p := New(NewAllocManager(0))

	src := []byte("hello")
	dup, err := p.Memdup(src)
	require.NoError(t, err)
	src[0] = 'X'
	assert.Equal(t, byte('h'), dup[0], "Memdup must not alias the caller's backing array")

	s := "world"
	dupStr, err := p.Strdup(s)
	require.NoError(t, err)
	assert.Equal(t, "world", dupStr)
}

// TestPoolBalance exercises the testable property that every byte an
// allocator hands out through a pool tree is eventually reported as
// returned once the root pool is destroyed.
func TestPoolBalance(t *testing.T) {
	mgr := NewAllocManager(0)
	root := New(mgr)
	child := root.Create()
	grandchild := child.Create()

	_, err := root.Alloc(512, 0)
	require.NoError(t, err)
	_, err = child.Alloc(1024, 0)
	require.NoError(t, err)
	_, err = grandchild.Alloc(2048, 0)
	require.NoError(t, err)

	require.NoError(t, root.Destroy())

	total := root.Stats().BytesReturned + child.Stats().BytesReturned + grandchild.Stats().BytesReturned
	assert.Greater(t, total, int64(0))
	assert.Greater(t, mgr.FreeBytes(), 0, "destroyed blocks should be recycled by the allocator")
}

// TestPoolOwnership exercises the testable property that destroying a
// parent always destroys every descendant, regardless of depth.
func TestPoolOwnership(t *testing.T) {
	root := New(NewAllocManager(0))
	child := root.Create()
	grandchild := child.Create()

	var destroyedGrandchild bool
	grandchild.RegisterCleanup(func(any) { destroyedGrandchild = true }, nil)

	require.NoError(t, root.Destroy())
	assert.True(t, destroyedGrandchild)
}

func TestDestroyRefusesWhileOnStack(t *testing.T) {
	// With Debug true the refusal panics; the error return is the
	// Debug-false path.
	old := Debug
	Debug = false
	defer func() { Debug = old }()

	s := NewStack()
	p := New(NewAllocManager(0))
	s.Push(p, "held")

	err := p.Destroy()
	assert.ErrorIs(t, err, ErrOnStack)

	_, popErr := s.Pop()
	require.NoError(t, popErr)
	require.NoError(t, p.Destroy())
}

// TestLargeBlockFreeListReuse exercises the testable property that a large
// allocation, once freed, is handed back out by a later large allocation of
// a similar size rather than pulling fresh memory from the runtime.
func TestLargeBlockFreeListReuse(t *testing.T) {
	mgr := NewAllocManager(0)
	p := New(mgr)

	first, err := p.Alloc(BlockThreshold, 0)
	require.NoError(t, err)
	p.Free(first, BlockThreshold)

	before := mgr.FreeBytes()
	assert.Greater(t, before, 0)

	_, err = p.Alloc(BlockThreshold, 0)
	require.NoError(t, err)
	assert.Less(t, mgr.FreeBytes(), before, "a fresh large alloc should have pulled the recycled block back out")
}

func TestClearPreservesPoolIdentity(t *testing.T) {
	p := New(NewAllocManager(0))

	ran := false
	p.RegisterCleanup(func(any) { ran = true }, nil)

	_, err := p.Alloc(64, 0)
	require.NoError(t, err)

	p.Clear()
	assert.True(t, ran)

	// the same handle keeps working after Clear
	_, err = p.Alloc(64, 0)
	require.NoError(t, err)
}

func TestKillCleanupPreventsExecution(t *testing.T) {
	p := New(NewAllocManager(0))

	ran := false
	tok := p.RegisterCleanup(func(any) { ran = true }, nil)
	p.KillCleanup(tok)

	require.NoError(t, p.Destroy())
	assert.False(t, ran)
}

func TestCleanupsRunInReverseOrder(t *testing.T) {
	p := New(NewAllocManager(0))

	var order []int
	p.RegisterCleanup(func(any) { order = append(order, 1) }, nil)
	p.RegisterCleanup(func(any) { order = append(order, 2) }, nil)
	p.RegisterCleanup(func(any) { order = append(order, 3) }, nil)

	require.NoError(t, p.Destroy())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestUserdataRoundTrip(t *testing.T) {
	p := New(NewAllocManager(0))

	require.NoError(t, p.UserdataSet("k", 42, nil))
	v, ok := p.UserdataGet("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = p.UserdataGet("missing")
	assert.False(t, ok)
}

func TestUserdataCleanupRunsOnDestroy(t *testing.T) {
	p := New(NewAllocManager(0))

	var released any
	require.NoError(t, p.UserdataSet("conn", "handle", func(v any) { released = v }))

	require.NoError(t, p.Destroy())
	assert.Equal(t, "handle", released)
}
