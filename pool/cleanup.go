package pool

// CleanupFunc is called with the data pointer it was registered with. A
// cleanup must not allocate from the pool that is running it — the pool is
// already unwinding by the time cleanups fire.
type CleanupFunc func(data any)

// CleanupToken identifies a previously registered cleanup so it can be
// cancelled with Pool.KillCleanup. CleanupFunc values aren't comparable
// in Go, so registration hands back an opaque handle instead of the
// (data, fn) pair being used as the removal key.
type CleanupToken uint64

type cleanupEntry struct {
	token CleanupToken
	fn    CleanupFunc
	data  any
}

// RegisterCleanup adds fn to the pool's regular cleanup list, run after all
// child pools have been destroyed, in reverse registration order.
func (p *Pool) RegisterCleanup(fn CleanupFunc, data any) CleanupToken {
	return p.registerInto(&p.cleanups, fn, data)
}

// RegisterPreCleanup adds fn to the pool's pre-cleanup list, run before any
// child pool is destroyed, in reverse registration order.
func (p *Pool) RegisterPreCleanup(fn CleanupFunc, data any) CleanupToken {
	return p.registerInto(&p.preCleanups, fn, data)
}

func (p *Pool) registerInto(list *[]cleanupEntry, fn CleanupFunc, data any) CleanupToken {
	p.cleanupSeq++
	tok := p.cleanupSeq
	*list = append(*list, cleanupEntry{token: tok, fn: fn, data: data})
	return tok
}

// KillCleanup removes a previously registered cleanup (regular or pre)
// before it has run. It is a no-op if the token is unknown or already ran.
func (p *Pool) KillCleanup(tok CleanupToken) {
	p.cleanups = killToken(p.cleanups, tok)
	p.preCleanups = killToken(p.preCleanups, tok)
}

func killToken(list []cleanupEntry, tok CleanupToken) []cleanupEntry {
	for i, e := range list {
		if e.token == tok {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// runCleanups invokes a cleanup list in reverse registration order,
// then clears the list.
func runCleanups(list *[]cleanupEntry) {
	for i := len(*list) - 1; i >= 0; i-- {
		(*list)[i].fn((*list)[i].data)
	}
	*list = nil
}
