// Package backend is the backend-neutral storage interface: a Driver/
// Adapter/Cursor capability split selected at open-time by a DSN's URL
// scheme, so the SQLite and PostgreSQL adapters implement one contract.
package backend

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/arion-db/arion/connector"
	"github.com/arion-db/arion/dialect"
	"github.com/arion-db/arion/schema"
)

// IsolationLevel is the backend-neutral isolation enum, mapped by each
// adapter onto its own BEGIN syntax.
type IsolationLevel int

const (
	ReadCommitted IsolationLevel = iota
	RepeatableRead
	Serialized
)

func (l IsolationLevel) String() string {
	switch l {
	case RepeatableRead:
		return "repeatable read"
	case Serialized:
		return "serializable"
	default:
		return "read committed"
	}
}

// StorageType names the physical SQL storage class a column decodes to,
// independent of the schema.Kind a Field declares — the PostgreSQL
// adapter's pg_type oid map resolves to these.
type StorageType int

const (
	StorageUnknown StorageType = iota
	StorageInteger
	StorageFloat
	StorageBoolean
	StorageText
	StorageBytes
	StorageTimestamp
	StorageCustom
)

// Cursor is the backend-neutral result cursor: typed column
// access by index plus next()-style row iteration.
type Cursor interface {
	Next(ctx context.Context) bool
	Err() error
	Close() error

	Columns() []string
	IsNull(col int) bool

	ToString(col int) (string, error)
	ToBytes(col int) ([]byte, error)
	ToInteger(col int) (int64, error)
	ToDouble(col int) (float64, error)
	ToBool(col int) (bool, error)

	// ToTypedData decodes col using the column's declared StorageType.
	ToTypedData(col int) (any, error)
	// ToCustomData dispatches to field's registered custom decoder.
	ToCustomData(col int, field *schema.Field) (any, error)
}

// Adapter is a per-connection handle implementing statement execution and
// transaction primitives over one backend.
type Adapter interface {
	Exec(ctx context.Context, sqlText string, args ...any) (int64, error)
	Query(ctx context.Context, sqlText string, args ...any) (Cursor, error)

	BeginTx(ctx context.Context, level IsolationLevel) (Tx, error)

	Dialect() dialect.Dialect
	Close() error
}

// Tx is an Adapter scoped to a single transaction: every statement it
// executes participates in that transaction until Commit or Rollback.
type Tx interface {
	Adapter
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Driver opens Adapters for one backend, named by the URL scheme Open
// dispatches on ("postgres", "sqlite").
type Driver interface {
	Name() string
	Open(ctx context.Context, dsn string) (Adapter, error)
}

var (
	mu      sync.RWMutex
	drivers = map[string]Driver{}
)

// Register adds d to the set Open dispatches across, keyed by d.Name().
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	drivers[d.Name()] = d
}

// Open parses dsn's URL scheme and opens an Adapter through the Driver
// registered for it.
func Open(ctx context.Context, dsn string) (Adapter, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid dsn: %w", err)
	}

	mu.RLock()
	d, ok := drivers[u.Scheme]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend: no driver registered for scheme %q", u.Scheme)
	}
	return d.Open(ctx, dsn)
}

// OpenParams opens an Adapter from the string-map connection parameters
// (driver, dbname, user, password, host, port, nmin/nmax/nkeep/exptime/
// persistent plus backend passthrough keys), retrying per retry if the
// database isn't accepting connections yet. retry may be nil for a single
// attempt.
func OpenParams(ctx context.Context, params connector.Params, retry *connector.RetryConfig) (Adapter, error) {
	dsn, err := params.DSN()
	if err != nil {
		return nil, err
	}

	var a Adapter
	err = connector.ConnectWithRetry(ctx, retry, func(ctx context.Context) error {
		var cerr error
		a, cerr = Open(ctx, dsn)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
