package cache

import "sync"

// CachedQuery is one rendered statement: the SQL text plus the argument
// order the visitor bound it with, keyed by the AST's fingerprint so an
// identical tree skips the emit walk entirely.
type CachedQuery struct {
	SQL       string
	Args      []any
	ArgsOrder []string
	StmtKey   string
	ScannerID string
}

type QueryCache interface {
	Get(fingerprint uint64) (*CachedQuery, bool)
	Set(fingerprint uint64, sql string, args []any, argsOrder []string, stmtKey string, scannerID string)
}

type memQueryCache struct {
	mu   sync.RWMutex
	data map[uint64]*CachedQuery
}

func NewQueryCache() QueryCache {
	return &memQueryCache{data: make(map[uint64]*CachedQuery, 256)}
}

func (c *memQueryCache) Get(f uint64) (*CachedQuery, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.data[f]
	return q, ok
}

func (c *memQueryCache) Set(f uint64, sql string, args []any, argsOrder []string, stmtKey string, scannerID string) {
	c.mu.Lock()
	c.data[f] = &CachedQuery{
		SQL:       sql,
		Args:      args,
		ArgsOrder: argsOrder,
		StmtKey:   stmtKey,
		ScannerID: scannerID,
	}
	c.mu.Unlock()
}
