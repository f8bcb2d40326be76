package cache

import (
	"database/sql"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// StatementCache holds prepared *sql.Stmt handles keyed by the statement
// text's fingerprint, evicting (and closing) the least recently used
// entries past size. The SQLite adapter keeps its hot housekeeping
// statements here — the oid-counter advance in particular, which runs for
// every object create.
type StatementCache struct {
	cache *lru.Cache[uint64, *sql.Stmt]
	mu    sync.RWMutex
}

func NewStatementCache(size int) *StatementCache {
	c, _ := lru.NewWithEvict(size, func(_ uint64, stmt *sql.Stmt) {
		stmt.Close()
	})
	return &StatementCache{cache: c}
}

func (s *StatementCache) Get(key uint64) (*sql.Stmt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if stmt, ok := s.cache.Get(key); ok {
		return stmt, nil
	}
	return nil, errors.New("key not found")
}

func (s *StatementCache) Set(key uint64, stmt *sql.Stmt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, stmt)
}

// GetOrPrepare returns the cached statement for key, preparing and caching
// it on first use.
func (s *StatementCache) GetOrPrepare(key uint64, db *sql.DB, query string) (*sql.Stmt, error) {
	s.mu.RLock()
	if stmt, ok := s.cache.Get(key); ok {
		s.mu.RUnlock()
		return stmt, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.cache.Get(key); ok {
		return stmt, nil
	}

	stmt, err := db.Prepare(query)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, stmt)
	return stmt, nil
}

// Close purges the cache, closing every cached statement via the evict
// hook.
func (s *StatementCache) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return nil
}
