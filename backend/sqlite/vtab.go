package sqlite

import (
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// unwrapModule implements the sp_unwrap virtual table module used for
// iterating encoded arrays in JOINs: an Array field
// is stored as a value table (one row per element), but a
// caller holding only an already-encoded delimiter-joined string (e.g. a
// value returned from an older snapshot, or passed across the sp_ts_*
// functions) needs to unnest it inline in a query without a subquery
// against that table. `SELECT value FROM sp_unwrap('a,b,c')` yields three
// rows.
type unwrapModule struct{}

func (m *unwrapModule) Create(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	if err := c.DeclareVTab(`CREATE TABLE x (value TEXT)`); err != nil {
		return nil, err
	}
	return &unwrapTable{}, nil
}

func (m *unwrapModule) Connect(c *sqlite3.SQLiteConn, args []string) (sqlite3.VTab, error) {
	return m.Create(c, args)
}

func (m *unwrapModule) DestroyModule() {}

type unwrapTable struct{}

func (t *unwrapTable) Open() (sqlite3.VTabCursor, error) {
	return &unwrapCursor{}, nil
}

func (t *unwrapTable) BestIndex(cst []sqlite3.InfoConstraint, ob []sqlite3.InfoOrderBy) (*sqlite3.IndexResult, error) {
	return &sqlite3.IndexResult{Used: make([]bool, len(cst))}, nil
}

func (t *unwrapTable) Disconnect() error { return nil }
func (t *unwrapTable) Destroy() error    { return nil }

type unwrapCursor struct {
	values []string
	pos    int
}

// Filter receives the hidden argument(s) the table was invoked with
// (sp_unwrap('a,b,c')) and splits it into rows on comma, the encoding
// Array value tables use for a denormalized snapshot.
func (c *unwrapCursor) Filter(idxNum int, idxStr string, vals []interface{}) error {
	c.values = nil
	if len(vals) > 0 {
		if s, ok := vals[0].(string); ok && s != "" {
			c.values = strings.Split(s, ",")
		}
	}
	c.pos = 0
	return nil
}

func (c *unwrapCursor) Next() error {
	c.pos++
	return nil
}

func (c *unwrapCursor) EOF() bool {
	return c.pos >= len(c.values)
}

func (c *unwrapCursor) Column(ctx *sqlite3.SQLiteContext, col int) error {
	if c.pos < len(c.values) {
		ctx.ResultText(c.values[c.pos])
	}
	return nil
}

func (c *unwrapCursor) Rowid() (int64, error) {
	return int64(c.pos), nil
}

func (c *unwrapCursor) Close() error { return nil }
