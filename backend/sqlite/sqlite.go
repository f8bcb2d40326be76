// Package sqlite implements backend.Driver/backend.Adapter over
// mattn/go-sqlite3, which can register both custom SQL functions
// (sp_sqlite_next_oid/sp_sqlite_now/sp_sqlite_user and the sp_ts_*
// full-text hooks) and the sp_unwrap virtual-table module.
// modernc.org/sqlite exposes neither registration hook, so the cgo cost
// of mattn/go-sqlite3 is accepted as the price of the feature.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/cache"
	"github.com/arion-db/arion/dialect"
	"github.com/arion-db/arion/utils"
)

const driverName = "sqlite3_arion"

var registerOnce sync.Once

// currentUser is a process-wide holder sp_sqlite_user() reads from; each
// transaction sets it via Adapter.SetUser before running statements, the
// same role serenity.user/serenity.now play
// on the PostgreSQL side, since SQLite has no session-variable
// mechanism of its own.
var currentUser atomic.Int64

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := registerFunctions(conn); err != nil {
					return err
				}
				return conn.CreateModule("sp_unwrap", &unwrapModule{})
			},
		})
	})
}

func init() {
	registerDriver()
	backend.Register(&Driver{})
}

// Driver opens SQLite backend.Adapters from a "sqlite://" DSN. The path
// component is resolved relative to documentRoot; mode/cache/
// threading/journal query parameters are passed through to mattn's DSN
// syntax.
type Driver struct {
	DocumentRoot string
}

func (Driver) Name() string { return "sqlite" }

func (d Driver) Open(ctx context.Context, dsn string) (backend.Adapter, error) {
	registerDriver()

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "sqlite.Open", err)
	}

	path := u.Opaque
	if path == "" {
		path = u.Host + u.Path
	}
	if path != "" && path != ":memory:" && !filepath.IsAbs(path) && d.DocumentRoot != "" {
		path = filepath.Join(d.DocumentRoot, path)
	}

	q := u.Query()
	dsnArgs := make([]string, 0, len(q))
	for k, vs := range q {
		for _, v := range vs {
			dsnArgs = append(dsnArgs, k+"="+v)
		}
	}
	connStr := path
	if len(dsnArgs) > 0 {
		connStr += "?" + strings.Join(dsnArgs, "&")
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "sqlite.Open", err)
	}
	db.SetMaxOpenConns(1) // mattn/go-sqlite3 connections aren't safely shared across goroutines mid-write

	a := &Adapter{db: db, stmts: cache.NewStatementCache(64)}
	if err := a.ensureHousekeeping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// execer is the subset of *sql.DB/*sql.Tx this adapter needs.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Adapter is the mattn/go-sqlite3-backed backend.Adapter.
type Adapter struct {
	db    *sql.DB
	exec  execer
	stmts *cache.StatementCache

	mu       sync.Mutex
	poisoned bool
	tx       *sql.Tx
}

func (a *Adapter) execr() execer {
	if a.exec != nil {
		return a.exec
	}
	return a.db
}

func (a *Adapter) Exec(ctx context.Context, sqlText string, args ...any) (int64, error) {
	if a.isPoisoned() {
		return 0, arionerr.New(arionerr.KindLogic, sqlText, fmt.Errorf("transaction cancelled"))
	}
	res, err := a.execr().ExecContext(ctx, sqlText, args...)
	if err != nil {
		return 0, arionerr.New(arionerr.KindBackend, sqlText, err)
	}
	return res.RowsAffected()
}

func (a *Adapter) Query(ctx context.Context, sqlText string, args ...any) (backend.Cursor, error) {
	if a.isPoisoned() {
		return nil, arionerr.New(arionerr.KindLogic, sqlText, fmt.Errorf("transaction cancelled"))
	}
	rows, err := a.execr().QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, sqlText, err)
	}
	cols, _ := rows.Columns()
	return &Cursor{rows: rows, cols: cols}, nil
}

func (a *Adapter) isPoisoned() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poisoned
}

func (a *Adapter) Dialect() dialect.Dialect { return dialect.NewSQLiteDialect() }

func (a *Adapter) Close() error {
	if a.tx == nil && a.exec == nil {
		_ = a.stmts.Close()
		return a.db.Close()
	}
	return nil
}

// BeginTx starts a transaction. SQLite has one real isolation level
// (serializable, via the database-wide write lock). Every level starts a
// plain deferred BEGIN; for RepeatableRead and Serialized the transaction
// then runs PRAGMA locking_mode=EXCLUSIVE, which keeps the locks it takes
// held on that connection until the locking mode is changed back. No
// write lock is taken up front.
func (a *Adapter) BeginTx(ctx context.Context, level backend.IsolationLevel) (backend.Tx, error) {
	opts := &sql.TxOptions{}
	sqlTx, err := a.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "BEGIN", err)
	}
	if level != backend.ReadCommitted {
		if _, err := sqlTx.ExecContext(ctx, "PRAGMA locking_mode=EXCLUSIVE"); err != nil {
			sqlTx.Rollback()
			return nil, arionerr.New(arionerr.KindBackend, "PRAGMA locking_mode", err)
		}
	}
	return &txAdapter{Adapter: &Adapter{db: a.db, exec: sqlTx, stmts: a.stmts}, sqlTx: sqlTx}, nil
}

// SetUser stores userID for sp_sqlite_user() to read for the remainder of
// the process's current logical transaction — SQLite has no per-connection
// session variable, so this is process-wide, documented as the practical
// limitation of a single-writer embedded database.
func (a *Adapter) SetUser(userID int64) { currentUser.Store(userID) }

type txAdapter struct {
	*Adapter
	sqlTx *sql.Tx
}

func (t *txAdapter) Commit(ctx context.Context) error {
	if err := t.sqlTx.Commit(); err != nil {
		return arionerr.New(arionerr.KindBackend, "COMMIT", err)
	}
	return nil
}

func (t *txAdapter) Rollback(ctx context.Context) error {
	t.mu.Lock()
	t.poisoned = true
	t.mu.Unlock()
	if err := t.sqlTx.Rollback(); err != nil {
		return arionerr.New(arionerr.KindBackend, "ROLLBACK", err)
	}
	return nil
}

// ensureHousekeeping creates the SQLite-only __objects oid-counter row and
// the __words interning table, if they don't exist
// yet. The rest of the housekeeping tables are created by the migrate
// package, which is backend-neutral; these two are SQLite-specific enough
// (and needed before any scheme DDL runs) that the adapter seeds them
// itself at open time.
func (a *Adapter) ensureHousekeeping(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS __objects (control INTEGER PRIMARY KEY, __oid INTEGER NOT NULL)`,
		`INSERT OR IGNORE INTO __objects (control, __oid) VALUES (0, 0)`,
		`CREATE TABLE IF NOT EXISTS __words (id INTEGER NOT NULL, word TEXT NOT NULL)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS __words_id_idx ON __words (id)`,
	}
	for _, s := range stmts {
		if _, err := a.db.ExecContext(ctx, s); err != nil {
			return arionerr.New(arionerr.KindSchemaMismatch, s, err)
		}
	}
	return nil
}

// NextOID atomically advances and returns the __objects monotonic counter,
// via prepared `UPDATE __objects SET __oid = __oid + 1 WHERE
// control=0 RETURNING __oid` shape (SQLite's RETURNING support is recent
// enough that this is written with an explicit follow-up SELECT for
// portability across the versions this driver links against).
func (a *Adapter) NextOID(ctx context.Context) (int64, error) {
	upd, err := a.prepared(ctx, `UPDATE __objects SET __oid = __oid + 1 WHERE control = 0`)
	if err != nil {
		return 0, arionerr.New(arionerr.KindBackend, "NextOID", err)
	}
	if _, err := upd.ExecContext(ctx); err != nil {
		return 0, arionerr.New(arionerr.KindBackend, "NextOID", err)
	}
	sel, err := a.prepared(ctx, `SELECT __oid FROM __objects WHERE control = 0`)
	if err != nil {
		return 0, arionerr.New(arionerr.KindBackend, "NextOID", err)
	}
	rows, err := sel.QueryContext(ctx)
	if err != nil {
		return 0, arionerr.New(arionerr.KindBackend, "NextOID", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, arionerr.New(arionerr.KindBackend, "NextOID", fmt.Errorf("missing __objects row"))
	}
	var oid int64
	if err := rows.Scan(&oid); err != nil {
		return 0, err
	}
	return oid, nil
}

// prepared returns the cached prepared statement for text, rebinding it to
// the current transaction when one is open.
func (a *Adapter) prepared(ctx context.Context, text string) (*sql.Stmt, error) {
	stmt, err := a.stmts.GetOrPrepare(utils.FingerprintString(text), a.db, text)
	if err != nil {
		return nil, err
	}
	if tx, ok := a.exec.(*sql.Tx); ok {
		return tx.StmtContext(ctx, stmt), nil
	}
	return stmt, nil
}

func quoteInt(n int64) string { return strconv.FormatInt(n, 10) }
