package pool

import "math/bits"

// minBlockSize is the smallest block the allocator ever requests from the
// system. Bump allocations walk the active block chain before asking the
// allocator for a fresh one this size (or larger, for oversized requests).
const minBlockSize = 8 * 1024

// block is a single contiguous span of bytes owned by exactly one pool at a
// time. Blocks are addressed by the pool tree via pointers here (this is a
// pure Go arena, not a C one — there is no separate slot-index table the way
// a segmented native arena would need one); the shape is next, index,
// firstAvail, data.
type block struct {
	next       *block // next block in this pool's active chain
	index      int    // size-class index this block was allocated under
	firstAvail int     // offset of the first unused byte
	data       []byte
}

func newBlock(size int) *block {
	return &block{data: make([]byte, size), index: sizeClass(size)}
}

func (b *block) avail() int { return len(b.data) - b.firstAvail }

func (b *block) reset() {
	b.firstAvail = 0
	b.next = nil
}

// bump carves off size bytes aligned to align, returning the slice and
// whether the block had room. align must already be validated as a power of
// two no greater than MaxAlign.
func (b *block) bump(size, align int) ([]byte, bool) {
	start := alignUp(b.firstAvail, align)
	end := start + size
	if end > len(b.data) {
		return nil, false
	}
	b.firstAvail = end
	return b.data[start:end:end], true
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// sizeClass buckets a byte size into a free-list index by rounding up to the
// next power of two at or above minBlockSize.
func sizeClass(size int) int {
	if size < minBlockSize {
		size = minBlockSize
	}
	// bits.Len of (size-1) gives ceil(log2(size)) for size > 1.
	return bits.Len(uint(size-1)) - bits.Len(uint(minBlockSize-1))
}

func classSize(class int) int {
	return minBlockSize << uint(class)
}
