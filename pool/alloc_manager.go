package pool

import "sync"

// maxSizeClasses bounds the free-list array. A block at the top class is
// minBlockSize << (maxSizeClasses-1) bytes, comfortably larger than any
// single allocation this library expects to serve from the bump path.
const maxSizeClasses = 24

// AllocManager is the block allocator shared by a pool and every pool in its
// tree. It owns a per-size-class free list of recycled blocks plus the
// system allocator fallback, and may be shared across goroutines —
// allocators (unlike individual pools) are
// internally locked and may outlive any single thread of control.
type AllocManager struct {
	mu        sync.Mutex
	free      [maxSizeClasses]*block
	last      int // highest size class with a non-empty free list, -1 if none
	maxFree   int // bytes of recycled memory to retain; 0 means unlimited
	freeBytes int
}

// NewAllocManager creates an allocator. maxFree caps how many bytes of freed
// blocks it will hold onto for reuse before letting the runtime GC them;
// pass 0 for no cap.
func NewAllocManager(maxFree int) *AllocManager {
	return &AllocManager{last: -1, maxFree: maxFree}
}

// getBlock returns a block with at least minSize bytes of capacity, first by
// popping a recycled block whose class is >= the requested class, then by
// allocating fresh from the runtime.
func (m *AllocManager) getBlock(minSize int) *block {
	cls := sizeClass(minSize)

	m.mu.Lock()
	for c := cls; c <= m.last; c++ {
		if b := m.free[c]; b != nil {
			m.free[c] = b.next
			m.freeBytes -= len(b.data)
			m.shrinkLastLocked()
			m.mu.Unlock()
			b.reset()
			return b
		}
	}
	m.mu.Unlock()

	return newBlock(classSize(cls))
}

// putBlock returns a block to the free list for the given size class,
// subject to maxFree. Blocks dropped because the cap is exceeded are left
// for the garbage collector.
func (m *AllocManager) putBlock(b *block) {
	b.reset()
	cls := sizeClass(len(b.data))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxFree > 0 && m.freeBytes+len(b.data) > m.maxFree {
		return
	}

	b.next = m.free[cls]
	m.free[cls] = b
	m.freeBytes += len(b.data)
	if cls > m.last {
		m.last = cls
	}
}

// shrinkLastLocked re-establishes the last invariant after popping the head
// of what may have been the highest non-empty class. Caller holds mu.
func (m *AllocManager) shrinkLastLocked() {
	for m.last >= 0 && m.free[m.last] == nil {
		m.last--
	}
}

// FreeBytes reports how many bytes are currently held in the recycle list.
func (m *AllocManager) FreeBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.freeBytes
}
