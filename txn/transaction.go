// Package txn is the worker/transaction façade: a Transaction wraps an
// adapter in counted begin/commit/rollback semantics, and a Worker binds
// one Scheme to an adapter or transaction for the duration of a request.
package txn

import (
	"context"
	"fmt"
	"sync"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/dialect"
)

// Status tracks how a Transaction will resolve when its last Release runs.
type Status int

const (
	StatusNone Status = iota
	StatusCommit
	StatusRollback
)

// Runner is the statement-execution subset shared by a bare
// backend.Adapter and a Transaction, so a Worker can run against either
// without caring which it was handed.
type Runner interface {
	Exec(ctx context.Context, sqlText string, args ...any) (int64, error)
	Query(ctx context.Context, sqlText string, args ...any) (backend.Cursor, error)
	Dialect() dialect.Dialect
}

// Transaction is a counted handle over one backend transaction. Acquire on
// an adapter that already has a live transaction returns the same handle
// with its count incremented; the underlying COMMIT or ROLLBACK happens
// only when the count returns to zero. Cancel poisons the handle: every
// subsequent statement short-circuits with a logic error and the final
// Release rolls back.
type Transaction struct {
	adapter backend.Adapter
	tx      backend.Tx
	level   backend.IsolationLevel

	depth     int
	status    Status
	cancelled bool
}

var (
	activeMu sync.Mutex
	active   = map[backend.Adapter]*Transaction{}
)

// Acquire begins a transaction on adapter at level, or returns the
// already-open transaction for that adapter with its nesting count
// incremented. A nested Acquire ignores level; the outermost caller's
// isolation wins.
func Acquire(ctx context.Context, adapter backend.Adapter, level backend.IsolationLevel) (*Transaction, error) {
	activeMu.Lock()
	if t, ok := active[adapter]; ok {
		t.depth++
		activeMu.Unlock()
		return t, nil
	}
	activeMu.Unlock()

	tx, err := adapter.BeginTx(ctx, level)
	if err != nil {
		return nil, err
	}

	t := &Transaction{adapter: adapter, tx: tx, level: level, depth: 1}
	activeMu.Lock()
	active[adapter] = t
	activeMu.Unlock()
	return t, nil
}

// Release decrements the nesting count. At zero it commits unless the
// transaction was cancelled or a statement failed, in which case it rolls
// back; either way the adapter's active-transaction slot is freed.
func (t *Transaction) Release(ctx context.Context) error {
	t.depth--
	if t.depth > 0 {
		return nil
	}

	activeMu.Lock()
	delete(active, t.adapter)
	activeMu.Unlock()

	if t.cancelled || t.status == StatusRollback {
		t.status = StatusRollback
		return t.tx.Rollback(ctx)
	}
	t.status = StatusCommit
	return t.tx.Commit(ctx)
}

// Cancel poisons the transaction: later statements return a logic error
// without touching the connection, and the final Release rolls back.
func (t *Transaction) Cancel() {
	t.cancelled = true
	t.status = StatusRollback
}

// Cancelled reports whether Cancel was called or a statement failure
// poisoned the transaction.
func (t *Transaction) Cancelled() bool { return t.cancelled }

// Status returns how the transaction has resolved (or will resolve).
func (t *Transaction) Status() Status { return t.status }

// Level returns the isolation level the outermost Acquire requested.
func (t *Transaction) Level() backend.IsolationLevel { return t.level }

func (t *Transaction) guard(op string) error {
	if t.cancelled {
		return arionerr.New(arionerr.KindLogic, op, fmt.Errorf("transaction is cancelled"))
	}
	return nil
}

// Exec runs a statement inside the transaction. A failure poisons the
// transaction so later statements short-circuit.
func (t *Transaction) Exec(ctx context.Context, sqlText string, args ...any) (int64, error) {
	if err := t.guard("exec"); err != nil {
		return 0, err
	}
	n, err := t.tx.Exec(ctx, sqlText, args...)
	if err != nil {
		t.Cancel()
		return 0, err
	}
	return n, nil
}

// Query runs a query inside the transaction, with the same poisoning rule
// as Exec.
func (t *Transaction) Query(ctx context.Context, sqlText string, args ...any) (backend.Cursor, error) {
	if err := t.guard("query"); err != nil {
		return nil, err
	}
	cur, err := t.tx.Query(ctx, sqlText, args...)
	if err != nil {
		t.Cancel()
		return nil, err
	}
	return cur, nil
}

// Dialect returns the underlying adapter's dialect.
func (t *Transaction) Dialect() dialect.Dialect { return t.tx.Dialect() }

// Perform runs fn inside a transaction on adapter: Acquire, fn, then
// Release. If fn returns an error (or panics) the transaction is cancelled
// first so Release rolls back; the panic is re-raised after the rollback.
func Perform(ctx context.Context, adapter backend.Adapter, level backend.IsolationLevel, fn func(*Transaction) error) (err error) {
	t, err := Acquire(ctx, adapter, level)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			t.Cancel()
			_ = t.Release(ctx)
			panic(r)
		}
	}()

	if err = fn(t); err != nil {
		t.Cancel()
		if rerr := t.Release(ctx); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	return t.Release(ctx)
}
