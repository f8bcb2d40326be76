// Package postgres implements backend.Driver/backend.Adapter over
// jackc/pgx/v5's pgxpool, with a pg_type oid map, binary parameter
// preference, LISTEN/NOTIFY consumption, and isolation-level and
// session-variable handling.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/dialect"
	"github.com/arion-db/arion/internal/obs"
)

func init() {
	backend.Register(&Driver{})
}

// Driver opens PostgreSQL backend.Adapters from a "postgres://" DSN.
type Driver struct{}

func (Driver) Name() string { return "postgres" }

func (Driver) Open(ctx context.Context, dsn string) (backend.Adapter, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "postgres.Open", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, arionerr.New(arionerr.KindConnectionLost, "postgres.Open", err)
	}

	a := &Adapter{pool: pool, oidMap: builtinOidMap()}
	if err := a.loadPgType(ctx); err != nil {
		obs.Op().Warn("postgres: failed to load pg_type oid map, using builtins only", "error", err)
	}
	return a, nil
}

// Adapter is the pgxpool-backed backend.Adapter. A nil exec (the common
// case) routes statements through the pool directly; a non-nil exec
// (set by BeginTx) routes them through the pgx.Tx instead, so Tx and
// Adapter share the same statement-execution code path.
type Adapter struct {
	pool   *pgxpool.Pool
	exec   queryExecer
	oidMap map[uint32]backend.StorageType

	mu        sync.Mutex
	poisoned  bool
	sessionTx pgx.Tx
}

// queryExecer is the subset of *pgxpool.Pool/pgx.Tx this adapter needs,
// letting Adapter and the Tx it hands out from BeginTx share one
// implementation.
type queryExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (a *Adapter) execer() queryExecer {
	if a.exec != nil {
		return a.exec
	}
	return a.pool
}

func (a *Adapter) Exec(ctx context.Context, sqlText string, args ...any) (int64, error) {
	a.mu.Lock()
	poisoned := a.poisoned
	a.mu.Unlock()
	if poisoned {
		return 0, arionerr.New(arionerr.KindLogic, sqlText, fmt.Errorf("transaction cancelled"))
	}

	tag, err := a.execer().Exec(ctx, sqlText, args...)
	if err != nil {
		return 0, arionerr.New(arionerr.KindBackend, sqlText, err)
	}
	return tag.RowsAffected(), nil
}

func (a *Adapter) Query(ctx context.Context, sqlText string, args ...any) (backend.Cursor, error) {
	a.mu.Lock()
	poisoned := a.poisoned
	a.mu.Unlock()
	if poisoned {
		return nil, arionerr.New(arionerr.KindLogic, sqlText, fmt.Errorf("transaction cancelled"))
	}

	rows, err := a.execer().Query(ctx, sqlText, args...)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, sqlText, err)
	}
	return &Cursor{rows: rows, oidMap: a.oidMap}, nil
}

func (a *Adapter) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }

func (a *Adapter) Close() error {
	if a.sessionTx == nil {
		a.pool.Close()
	}
	return nil
}

// BeginTx starts a transaction at the given isolation level and sets the
// transaction-local `serenity.now` variable. `serenity.user`, which
// triggers use to stamp delta rows, is set separately by SetUser.
func (a *Adapter) BeginTx(ctx context.Context, level backend.IsolationLevel) (backend.Tx, error) {
	opts := pgx.TxOptions{IsoLevel: isoLevel(level)}
	pgxTx, err := a.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, arionerr.New(arionerr.KindBackend, "BEGIN", err)
	}

	if _, err := pgxTx.Exec(ctx, fmt.Sprintf("SET LOCAL serenity.now = '%s'", time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
		_ = pgxTx.Rollback(ctx)
		return nil, arionerr.New(arionerr.KindBackend, "SET serenity.now", err)
	}

	return &txAdapter{
		Adapter: &Adapter{pool: a.pool, exec: pgxTx, oidMap: a.oidMap},
		pgxTx:   pgxTx,
	}, nil
}

// SetUser sets the `serenity.user` session variable for the remainder of
// this transaction, used by delta triggers to stamp the acting user.
func (a *Adapter) SetUser(ctx context.Context, userID int64) error {
	_, err := a.execer().Exec(ctx, fmt.Sprintf("SET LOCAL serenity.user = '%d'", userID))
	return err
}

type txAdapter struct {
	*Adapter
	pgxTx pgx.Tx
}

func (t *txAdapter) Commit(ctx context.Context) error {
	if err := t.pgxTx.Commit(ctx); err != nil {
		return arionerr.New(arionerr.KindBackend, "COMMIT", err)
	}
	return nil
}

func (t *txAdapter) Rollback(ctx context.Context) error {
	t.mu.Lock()
	t.poisoned = true
	t.mu.Unlock()
	if err := t.pgxTx.Rollback(ctx); err != nil {
		return arionerr.New(arionerr.KindBackend, "ROLLBACK", err)
	}
	return nil
}

func isoLevel(l backend.IsolationLevel) pgx.TxIsoLevel {
	switch l {
	case backend.RepeatableRead:
		return pgx.RepeatableRead
	case backend.Serialized:
		return pgx.Serializable
	default:
		return pgx.ReadCommitted
	}
}

// loadPgType reads pg_type and builds the oid->StorageType map;
// unknown oids are recorded as backend.StorageCustom so
// ToCustomData has somewhere to dispatch from.
func (a *Adapter) loadPgType(ctx context.Context) error {
	rows, err := a.pool.Query(ctx, "SELECT oid, typname FROM pg_type")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var oid uint32
		var name string
		if err := rows.Scan(&oid, &name); err != nil {
			return err
		}
		a.oidMap[oid] = classifyPgType(name)
	}
	return rows.Err()
}

func classifyPgType(name string) backend.StorageType {
	switch {
	case strings.Contains(name, "int"):
		return backend.StorageInteger
	case strings.Contains(name, "float") || strings.Contains(name, "numeric") || strings.Contains(name, "double"):
		return backend.StorageFloat
	case name == "bool":
		return backend.StorageBoolean
	case name == "text" || strings.HasPrefix(name, "varchar") || name == "bpchar" || name == "name":
		return backend.StorageText
	case name == "bytea":
		return backend.StorageBytes
	case strings.HasPrefix(name, "timestamp") || name == "date":
		return backend.StorageTimestamp
	default:
		return backend.StorageCustom
	}
}

// builtinOidMap seeds the map with the well-known scalar oids ahead of the
// live pg_type read, so the adapter still classifies correctly even if
// loadPgType's query fails against a restricted role.
func builtinOidMap() map[uint32]backend.StorageType {
	return map[uint32]backend.StorageType{
		20:   backend.StorageInteger, // int8
		21:   backend.StorageInteger, // int2
		23:   backend.StorageInteger, // int4
		16:   backend.StorageBoolean, // bool
		25:   backend.StorageText,    // text
		1043: backend.StorageText,   // varchar
		17:   backend.StorageBytes,   // bytea
		700:  backend.StorageFloat,   // float4
		701:  backend.StorageFloat,   // float8
		1700: backend.StorageFloat,   // numeric
		1114: backend.StorageTimestamp,
		1184: backend.StorageTimestamp,
	}
}

// parseNumericDigits decodes a libpq binary numeric's packed base-10000
// digit groups into a float64. pgx
// already exposes numeric values as pgtype.Numeric with its own Float64Value
// conversion; this free function documents and reimplements the same
// decode for callers that only have the raw digit slice (e.g. a custom
// Cursor built directly off a binary result set rather than through pgx's
// own scan path).
func parseNumericDigits(digits []int16, weight int16, sign uint16, dscale int16) (float64, error) {
	if sign == 0xC000 { // NaN
		return 0, fmt.Errorf("postgres: NaN numeric")
	}
	var sb strings.Builder
	if sign == 0x4000 {
		sb.WriteByte('-')
	}
	for i, d := range digits {
		if i == 0 {
			sb.WriteString(strconv.Itoa(int(d)))
		} else {
			sb.WriteString(fmt.Sprintf("%04d", d))
		}
	}
	s := sb.String()
	if s == "" || s == "-" {
		s += "0"
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	// weight is the base-10000 exponent of the first digit group; the
	// concatenation above puts the last group at exponent 0, so shift by
	// the difference. dscale is display precision only.
	for e := int(weight) - (len(digits) - 1); e > 0; e-- {
		v *= 10000
	}
	for e := int(weight) - (len(digits) - 1); e < 0; e++ {
		v /= 10000
	}
	_ = dscale
	return v, nil
}
