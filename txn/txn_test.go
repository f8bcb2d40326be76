package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/dialect"
	"github.com/arion-db/arion/query"
	"github.com/arion-db/arion/schema"
)

// fakeAdapter records every statement and serves canned query results.
type fakeAdapter struct {
	execs     []string
	queries   []string
	rows      []fakeRow
	cols      []string
	execErr   error
	affected  int64
	begun     int
	commits   int
	rollbacks int
}

type fakeRow []any

func (f *fakeAdapter) Exec(_ context.Context, sqlText string, _ ...any) (int64, error) {
	if f.execErr != nil {
		return 0, f.execErr
	}
	f.execs = append(f.execs, sqlText)
	return f.affected, nil
}

func (f *fakeAdapter) Query(_ context.Context, sqlText string, _ ...any) (backend.Cursor, error) {
	f.queries = append(f.queries, sqlText)
	return &fakeCursor{rows: f.rows, cols: f.cols}, nil
}

func (f *fakeAdapter) BeginTx(_ context.Context, _ backend.IsolationLevel) (backend.Tx, error) {
	f.begun++
	return &fakeTx{fakeAdapter: f}, nil
}

func (f *fakeAdapter) Dialect() dialect.Dialect { return dialect.NewPostgresDialect() }
func (f *fakeAdapter) Close() error             { return nil }

type fakeTx struct{ *fakeAdapter }

func (t *fakeTx) Commit(context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rollbacks++; return nil }

type fakeCursor struct {
	rows []fakeRow
	cols []string
	pos  int
}

func (c *fakeCursor) Next(context.Context) bool {
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *fakeCursor) Err() error        { return nil }
func (c *fakeCursor) Close() error      { return nil }
func (c *fakeCursor) Columns() []string { return c.cols }

func (c *fakeCursor) cell(col int) any { return c.rows[c.pos-1][col] }

func (c *fakeCursor) IsNull(col int) bool { return c.cell(col) == nil }

func (c *fakeCursor) ToString(col int) (string, error) {
	return fmt.Sprintf("%v", c.cell(col)), nil
}

func (c *fakeCursor) ToBytes(col int) ([]byte, error) {
	s, _ := c.ToString(col)
	return []byte(s), nil
}

func (c *fakeCursor) ToInteger(col int) (int64, error) {
	switch v := c.cell(col).(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func (c *fakeCursor) ToDouble(col int) (float64, error) {
	if v, ok := c.cell(col).(float64); ok {
		return v, nil
	}
	return 0, errors.New("not a double")
}

func (c *fakeCursor) ToBool(col int) (bool, error) {
	if v, ok := c.cell(col).(bool); ok {
		return v, nil
	}
	return false, errors.New("not a bool")
}

func (c *fakeCursor) ToTypedData(col int) (any, error) { return c.cell(col), nil }

func (c *fakeCursor) ToCustomData(col int, _ *schema.Field) (any, error) { return c.cell(col), nil }

func itemScheme(t *testing.T) *schema.Scheme {
	t.Helper()
	s := schema.NewScheme("Item").
		AddField(schema.Scalar("name", schema.KindText).WithRequired()).
		AddField(schema.Scalar("qty", schema.KindInteger)).
		AddField(schema.Array("tags", schema.KindText))
	set := schema.NewSet()
	require.NoError(t, set.Add(s))
	require.NoError(t, set.Finalize())
	return s
}

func TestAcquireNestedReturnsSameHandle(t *testing.T) {
	ctx := context.Background()
	ad := &fakeAdapter{}

	outer, err := Acquire(ctx, ad, backend.ReadCommitted)
	require.NoError(t, err)
	inner, err := Acquire(ctx, ad, backend.Serialized)
	require.NoError(t, err)
	assert.Same(t, outer, inner)
	assert.Equal(t, 1, ad.begun)

	require.NoError(t, inner.Release(ctx))
	assert.Equal(t, 0, ad.commits, "inner release must not commit")
	require.NoError(t, outer.Release(ctx))
	assert.Equal(t, 1, ad.commits)
}

func TestPerformCommitsOnSuccess(t *testing.T) {
	ad := &fakeAdapter{}
	err := Perform(context.Background(), ad, backend.ReadCommitted, func(tx *Transaction) error {
		_, err := tx.Exec(context.Background(), "UPDATE x SET y = 1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ad.commits)
	assert.Zero(t, ad.rollbacks)
}

func TestPerformRollsBackOnError(t *testing.T) {
	ad := &fakeAdapter{}
	boom := errors.New("boom")
	err := Perform(context.Background(), ad, backend.ReadCommitted, func(*Transaction) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, ad.commits)
	assert.Equal(t, 1, ad.rollbacks)
}

func TestPerformRollsBackOnPanic(t *testing.T) {
	ad := &fakeAdapter{}
	require.Panics(t, func() {
		_ = Perform(context.Background(), ad, backend.ReadCommitted, func(*Transaction) error {
			panic("boom")
		})
	})
	assert.Zero(t, ad.commits)
	assert.Equal(t, 1, ad.rollbacks)
}

func TestCancelledTransactionShortCircuits(t *testing.T) {
	ctx := context.Background()
	ad := &fakeAdapter{}

	tx, err := Acquire(ctx, ad, backend.ReadCommitted)
	require.NoError(t, err)
	tx.Cancel()

	_, err = tx.Exec(ctx, "UPDATE x SET y = 1")
	require.Error(t, err)
	assert.True(t, arionerr.Is(err, arionerr.KindLogic))
	assert.Empty(t, ad.execs, "statement must not reach the connection")

	require.NoError(t, tx.Release(ctx))
	assert.Equal(t, 1, ad.rollbacks)
	assert.Equal(t, StatusRollback, tx.Status())
}

func TestStatementFailurePoisonsTransaction(t *testing.T) {
	ctx := context.Background()
	ad := &fakeAdapter{execErr: errors.New("duplicate key")}

	tx, err := Acquire(ctx, ad, backend.ReadCommitted)
	require.NoError(t, err)

	_, err = tx.Exec(ctx, "INSERT INTO x VALUES (1)")
	require.Error(t, err)
	assert.True(t, tx.Cancelled())

	ad.execErr = nil
	_, err = tx.Exec(ctx, "INSERT INTO x VALUES (2)")
	require.Error(t, err, "poisoned transaction must refuse further statements")
	assert.True(t, arionerr.Is(err, arionerr.KindLogic))
}

func TestWorkerCreateRunsPostUpdatesInOneTransaction(t *testing.T) {
	ctx := context.Background()
	ad := &fakeAdapter{rows: []fakeRow{{int64(42)}}, cols: []string{"__oid"}, affected: 1}

	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(itemScheme(t), ad)
	defer w.Close()

	oid, err := w.Create(ctx, map[string]any{"name": "x", "qty": 3, "tags": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, int64(42), oid)

	require.Len(t, ad.queries, 1)
	assert.Contains(t, ad.queries[0], "INSERT INTO")
	assert.Contains(t, ad.queries[0], "RETURNING")

	// array post-updates: clear then insert, inside the surrounding tx
	require.Len(t, ad.execs, 2)
	assert.Contains(t, ad.execs[0], "DELETE FROM")
	assert.Contains(t, ad.execs[1], "INSERT INTO")
	assert.Equal(t, 1, ad.begun)
	assert.Equal(t, 1, ad.commits)
}

func TestWorkerCreateMissingRequiredField(t *testing.T) {
	ad := &fakeAdapter{}
	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(itemScheme(t), ad)
	defer w.Close()

	_, err := w.Create(context.Background(), map[string]any{"qty": 3})
	require.Error(t, err)
	assert.True(t, arionerr.Is(err, arionerr.KindValidation))
	assert.Empty(t, ad.queries, "invalid input must not reach the backend")
}

func TestWorkerUpdateNotFound(t *testing.T) {
	ad := &fakeAdapter{affected: 0}
	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(itemScheme(t), ad)
	defer w.Close()

	err := w.Update(context.Background(), 7, map[string]any{"qty": 9})
	require.Error(t, err)
	assert.True(t, arionerr.Is(err, arionerr.KindNotFound))
}

func TestWorkerDelete(t *testing.T) {
	ad := &fakeAdapter{affected: 1}
	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(itemScheme(t), ad)
	defer w.Close()

	require.NoError(t, w.Delete(context.Background(), 7))
	require.Len(t, ad.execs, 1)
	assert.True(t, strings.HasPrefix(ad.execs[0], "DELETE FROM"))
}

func TestWorkerSelectDecodesRows(t *testing.T) {
	scheme := itemScheme(t)
	ad := &fakeAdapter{
		cols: []string{scheme.ColumnName("name"), scheme.ColumnName("qty")},
		rows: []fakeRow{{"x", int64(3)}, {"y", int64(4)}},
	}
	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(scheme, ad)
	defer w.Close()

	rows, err := w.Select(context.Background(), w.Query().Where(query.Gt("qty", 0)))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "x", rows[0]["name"])
	assert.Equal(t, int64(3), rows[0]["qty"])
}

func TestWorkerGetNotFound(t *testing.T) {
	ad := &fakeAdapter{}
	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(itemScheme(t), ad)
	defer w.Close()

	_, err := w.Get(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, arionerr.Is(err, arionerr.KindNotFound))
}

func TestWorkerReusesExistingTransaction(t *testing.T) {
	ctx := context.Background()
	ad := &fakeAdapter{rows: []fakeRow{{int64(1)}}, cols: []string{"__oid"}, affected: 1}
	sess := NewSession()
	defer sess.Close()

	err := Perform(ctx, ad, backend.ReadCommitted, func(tx *Transaction) error {
		w := sess.Worker(itemScheme(t), tx)
		defer w.Close()
		_, err := w.Create(ctx, map[string]any{"name": "x"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ad.begun, "worker must not open a second transaction")
	assert.Equal(t, 1, ad.commits)
}

func TestWorkerUpdateHonorsWhenConditions(t *testing.T) {
	ad := &fakeAdapter{affected: 1}
	sess := NewSession()
	defer sess.Close()

	w := sess.Worker(itemScheme(t), ad).When(query.Gt("qty", 0))
	defer w.Close()

	require.NoError(t, w.Update(context.Background(), 7, map[string]any{"qty": 9}))
	require.Len(t, ad.execs, 1)
	assert.Contains(t, ad.execs[0], "WHERE")
	assert.Contains(t, ad.execs[0], "AND")
}
