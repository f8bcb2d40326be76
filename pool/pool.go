// Package pool implements a hierarchical arena allocator:
// bump-style allocation with optional large-block reuse,
// tree-structured pool lifetimes, cleanup callbacks, and keyed userdata.
//
// There is no pointer-graph in the native sense here — this is a pure-Go
// arena, so parent/child/sibling links are ordinary pointers to Pool values
// rather than slot indices into a shared table. Large ("oversized")
// allocations are tracked by the address of their backing array via
// unsafe.Pointer so Free can locate and recycle them; bump allocations
// below BlockThreshold are never individually freed.
package pool

import (
	"unsafe"
)

const (
	// DefaultAlign is used when Alloc is called with align == 0.
	DefaultAlign = 16
	// MaxAlign is the largest alignment Alloc will honor.
	MaxAlign = 1024
	// BlockThreshold is the size at or above which an allocation gets its
	// own dedicated, individually-freeable block instead of being bumped
	// out of the pool's shared active chain.
	BlockThreshold = 256
)

// Pool is a single node in the arena tree. A Pool's lifetime strictly
// contains its children's: Destroy on a parent always destroys every
// descendant first.
type Pool struct {
	mgr *AllocManager

	parent      *Pool
	firstChild  *Pool
	nextSibling *Pool
	prevSibling *Pool

	active      *block
	largeBlocks map[uintptr]*block

	cleanups    []cleanupEntry
	preCleanups []cleanupEntry
	cleanupSeq  CleanupToken

	userdata map[string]userdataEntry

	stats Stats

	destroying bool
	onStack    int // count of Stack frames currently referencing this pool
}

// New creates a root pool drawing blocks from mgr. Pass a shared
// *AllocManager to let sibling pool trees recycle each other's freed blocks.
func New(mgr *AllocManager) *Pool {
	if mgr == nil {
		mgr = NewAllocManager(0)
	}
	return &Pool{mgr: mgr}
}

// Create allocates a child pool whose lifetime cannot outlive p's.
func (p *Pool) Create() *Pool {
	child := &Pool{mgr: p.mgr, parent: p}
	child.nextSibling = p.firstChild
	if p.firstChild != nil {
		p.firstChild.prevSibling = child
	}
	p.firstChild = child
	return child
}

// Parent returns the pool this pool was created under, or nil for a root.
func (p *Pool) Parent() *Pool { return p.parent }

func validateAlign(align int) (int, error) {
	if align == 0 {
		align = DefaultAlign
	}
	if align > MaxAlign || align&(align-1) != 0 {
		return 0, ErrAlignTooLarge
	}
	return align, nil
}

// Alloc returns a pool-owned byte slice of exactly size bytes, aligned to at
// least align (0 means DefaultAlign). The block backing it is released when
// the pool is cleared or destroyed.
func (p *Pool) Alloc(size, align int) ([]byte, error) {
	align, err := validateAlign(align)
	if err != nil {
		return nil, err
	}
	if p.destroying {
		return nil, ErrDestroying
	}
	if size <= 0 {
		return nil, nil
	}

	var out []byte
	if size >= BlockThreshold {
		out = p.allocLarge(size, align)
	} else {
		out = p.allocBump(size, align)
	}

	p.stats.BytesAllocated += int64(size)
	return out, nil
}

// allocLarge gives size bytes their own dedicated block, tracked by backing
// address so Free can later recycle exactly that block.
func (p *Pool) allocLarge(size, align int) []byte {
	b := p.mgr.getBlock(size + align)
	out, ok := b.bump(size, align)
	if !ok {
		// getBlock rounds up to a size class that should always fit; this
		// only trips if classSize bookkeeping and minSize disagree.
		panic("pool: allocated block too small for requested large alloc")
	}
	if p.largeBlocks == nil {
		p.largeBlocks = make(map[uintptr]*block, 4)
	}
	p.largeBlocks[blockKey(out)] = b
	return out
}

// allocBump serves size bytes from the shared bump chain, walking active
// blocks before asking the allocator for a new one.
func (p *Pool) allocBump(size, align int) []byte {
	for b := p.active; b != nil; b = b.next {
		if out, ok := b.bump(size, align); ok {
			return out
		}
	}

	nb := p.mgr.getBlock(size + align)
	nb.next = p.active
	p.active = nb

	out, ok := nb.bump(size, align)
	if !ok {
		panic("pool: fresh block too small for requested bump alloc")
	}
	return out
}

func blockKey(data []byte) uintptr {
	if len(data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&data[0]))
}

// Free returns a previously-allocated region to the pool's free list. It is
// only meaningful for allocations of size >= BlockThreshold; anything else
// is a no-op.
func (p *Pool) Free(data []byte, size int) {
	if size < BlockThreshold || p.largeBlocks == nil {
		return
	}
	key := blockKey(data)
	b, ok := p.largeBlocks[key]
	if !ok {
		return
	}
	delete(p.largeBlocks, key)
	p.stats.BytesReturned += int64(size)
	p.mgr.putBlock(b)
}

// Calloc allocates count*eltsize bytes and zero-fills them.
func (p *Pool) Calloc(count, eltsize int) ([]byte, error) {
	out, err := p.Alloc(count*eltsize, 0)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = 0
	}
	return out, nil
}

// Strdup copies s into pool-owned memory and returns a string backed by
// that copy. The result becomes invalid once the pool is cleared or
// destroyed, exactly like any other pool allocation.
func (p *Pool) Strdup(s string) (string, error) {
	b, err := p.Alloc(len(s), 1)
	if err != nil {
		return "", err
	}
	if len(s) == 0 {
		return "", nil
	}
	copy(b, s)
	return unsafe.String(&b[0], len(b)), nil
}

// Memdup copies src into pool-owned memory.
func (p *Pool) Memdup(src []byte) ([]byte, error) {
	b, err := p.Alloc(len(src), 0)
	if err != nil {
		return nil, err
	}
	copy(b, src)
	return b, nil
}

// Clear runs every cleanup, destroys all children, and recycles every block
// this pool owns, but preserves the Pool value itself so callers can keep
// using the same handle. (The native "except the block containing the pool
// header" carve-out doesn't apply here: a Go Pool is an ordinary heap
// struct, never itself stored inside its own arena.)
func (p *Pool) Clear() {
	p.destroying = true
	runCleanups(&p.preCleanups)
	p.destroyChildren()
	runCleanups(&p.cleanups)
	runUserdataCleanups(p.userdata)
	p.userdata = nil
	p.releaseBlocks()
	p.destroying = false
}

// Destroy runs every cleanup, destroys all children bottom-up, and releases
// every block back to the allocator. The pool must not currently be
// referenced by any Stack frame.
func (p *Pool) Destroy() error {
	if p.onStack > 0 {
		return logicError(ErrOnStack)
	}
	p.destroying = true
	runCleanups(&p.preCleanups)
	p.destroyChildren()
	runCleanups(&p.cleanups)
	runUserdataCleanups(p.userdata)
	p.userdata = nil
	p.releaseBlocks()
	p.unlinkFromParent()
	return nil
}

func (p *Pool) destroyChildren() {
	child := p.firstChild
	for child != nil {
		next := child.nextSibling
		// Only p's own onStack count was checked in Destroy. A child that is
		// itself on a Stack makes child.Destroy panic when Debug is true;
		// with Debug false its ErrOnStack is dropped here and the child is
		// detached without being destroyed.
		_ = child.Destroy()
		child = next
	}
	p.firstChild = nil
}

func (p *Pool) releaseBlocks() {
	for b := p.active; b != nil; {
		next := b.next
		p.stats.BytesReturned += int64(len(b.data))
		p.mgr.putBlock(b)
		b = next
	}
	p.active = nil

	for _, b := range p.largeBlocks {
		p.stats.BytesReturned += int64(len(b.data))
		p.mgr.putBlock(b)
	}
	p.largeBlocks = nil
}

func (p *Pool) unlinkFromParent() {
	if p.parent == nil {
		return
	}
	if p.prevSibling != nil {
		p.prevSibling.nextSibling = p.nextSibling
	} else {
		p.parent.firstChild = p.nextSibling
	}
	if p.nextSibling != nil {
		p.nextSibling.prevSibling = p.prevSibling
	}
	p.parent = nil
	p.nextSibling = nil
	p.prevSibling = nil
}
