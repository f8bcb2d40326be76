package sqlite

import (
	"strings"
	"sync/atomic"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// registerFunctions installs the process-wide SQL functions:
// sp_sqlite_next_oid, sp_sqlite_now, sp_sqlite_user, and the
// sp_ts_* full-text hooks. Called from the driver's ConnectHook so every
// connection mattn/go-sqlite3 opens gets them — per-connection in
// practice, since SQLite has no cross-connection function registry.
func registerFunctions(conn *sqlite3.SQLiteConn) error {
	if err := conn.RegisterFunc("sp_sqlite_now", spSQLiteNow, true); err != nil {
		return err
	}
	if err := conn.RegisterFunc("sp_sqlite_user", spSQLiteUser, false); err != nil {
		return err
	}
	if err := conn.RegisterFunc("sp_sqlite_next_oid", spSQLiteNextOID, false); err != nil {
		return err
	}
	if err := conn.RegisterFunc("sp_ts_query_valid", spTSQueryValid, true); err != nil {
		return err
	}
	if err := conn.RegisterFunc("sp_ts_rank", spTSRank, true); err != nil {
		return err
	}
	if err := conn.RegisterFunc("sp_ts_update", spTSUpdate, true); err != nil {
		return err
	}
	return nil
}

// spSQLiteNow returns the current UNIX timestamp in microseconds, the unit
// the delta/view-delta `time BIGINT` columns store.
func spSQLiteNow() int64 {
	return time.Now().UnixMicro()
}

// spSQLiteUser returns the acting user id set by Adapter.SetUser for the
// current logical transaction — SQLite's substitution for PostgreSQL's
// `serenity.user` session variable, since SQLite has no
// session-variable mechanism.
func spSQLiteUser() int64 {
	return currentUser.Load()
}

// spSQLiteNextOID returns the next value of an in-process counter (see
// internalNextOID) to SQL (a trigger body); unlike Adapter.NextOID (called
// from Go for the primary INSERT path) it does not read or advance the
// __objects counter.
func spSQLiteNextOID() int64 {
	return internalNextOID()
}

// spTSQueryValid reports whether query tokenizes to at least one non-empty
// word, the minimal validity check a trigger or WHERE clause needs before
// calling sp_ts_rank against it.
func spTSQueryValid(query string) bool {
	return len(tokenize(query)) > 0
}

// spTSRank computes a crude term-overlap rank between a stored word list
// (space-joined, as __words interning produces) and a query string — the
// SQLite substitute for PostgreSQL's ts_rank(), since SQLite has no
// built-in text-search ranking function.
func spTSRank(words string, query string) float64 {
	stored := make(map[string]bool)
	for _, w := range tokenize(words) {
		stored[w] = true
	}
	q := tokenize(query)
	if len(q) == 0 {
		return 0
	}
	hits := 0
	for _, w := range q {
		if stored[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(q))
}

// spTSUpdate tokenizes text into the space-joined word list the
// <scheme>_f_<field> shadow table stores per row, triggers invoke it on
// insert/update of a FullTextView field's backing column.
func spTSUpdate(text string) string {
	return strings.Join(tokenize(text), " ")
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// internalNextOID backs sp_sqlite_next_oid. A plain SQL scalar function
// callback doesn't receive the calling connection in mattn/go-sqlite3's
// RegisterFunc signature, so it cannot run the table-level UPDATE the
// __objects counter uses; triggers that only need "a next id" get this
// in-process fallback counter instead, while the primary INSERT path
// advances __objects through Adapter.NextOID.
var internalOIDFallback atomic.Int64

func internalNextOID() int64 {
	return internalOIDFallback.Add(1)
}
