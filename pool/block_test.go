package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClassRoundTrip(t *testing.T) {
	cases := []int{1, minBlockSize, minBlockSize + 1, minBlockSize * 2, minBlockSize * 7}
	for _, size := range cases {
		cls := sizeClass(size)
		assert.GreaterOrEqual(t, classSize(cls), size)
	}
}

func TestBlockBumpAlignment(t *testing.T) {
	b := newBlock(minBlockSize)

	out, ok := b.bump(3, 1)
	assert.True(t, ok)
	assert.Len(t, out, 3)

	out2, ok := b.bump(8, 8)
	assert.True(t, ok)
	assert.Equal(t, 0, int(alignOf(out2))%8)
}

func TestBlockBumpFailsWhenFull(t *testing.T) {
	b := newBlock(minBlockSize)
	_, ok := b.bump(minBlockSize, 1)
	assert.True(t, ok)

	_, ok = b.bump(1, 1)
	assert.False(t, ok, "a full block must refuse further bumps")
}

func TestAllocManagerRecyclesBySizeClass(t *testing.T) {
	mgr := NewAllocManager(0)
	b := mgr.getBlock(minBlockSize)
	mgr.putBlock(b)

	assert.Equal(t, len(b.data), mgr.FreeBytes())

	b2 := mgr.getBlock(minBlockSize)
	assert.Same(t, b, b2)
	assert.Equal(t, 0, mgr.FreeBytes())
}

func TestAllocManagerRespectsMaxFree(t *testing.T) {
	mgr := NewAllocManager(minBlockSize)
	b1 := newBlock(minBlockSize)
	b2 := newBlock(minBlockSize)

	mgr.putBlock(b1)
	mgr.putBlock(b2) // exceeds cap, dropped

	assert.Equal(t, minBlockSize, mgr.FreeBytes())
}

// alignOf reports the address, used only to check alignment in tests.
func alignOf(b []byte) uintptr {
	return blockKey(b)
}
