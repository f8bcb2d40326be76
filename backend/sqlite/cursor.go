package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arion-db/arion/schema"
)

// Cursor implements backend.Cursor over *sql.Rows.
type Cursor struct {
	rows *sql.Rows
	cols []string
	vals []any
	ptrs []any
}

// Next advances to the next row and scans it into the cursor's internal
// buffer; ctx is accepted to satisfy backend.Cursor but database/sql's
// *sql.Rows has no per-row context cancellation point of its own.
func (c *Cursor) Next(ctx context.Context) bool {
	if !c.rows.Next() {
		return false
	}
	if c.vals == nil {
		c.vals = make([]any, len(c.cols))
		c.ptrs = make([]any, len(c.cols))
		for i := range c.vals {
			c.ptrs[i] = &c.vals[i]
		}
	}
	return c.rows.Scan(c.ptrs...) == nil
}

func (c *Cursor) Columns() []string { return c.cols }

func (c *Cursor) Err() error { return c.rows.Err() }

func (c *Cursor) Close() error { return c.rows.Close() }

func (c *Cursor) IsNull(col int) bool {
	if col < 0 || col >= len(c.vals) {
		return true
	}
	return c.vals[col] == nil
}

func (c *Cursor) ToString(col int) (string, error) {
	v, err := c.at(col)
	if err != nil || v == nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (c *Cursor) ToBytes(col int) ([]byte, error) {
	v, err := c.at(col)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("sqlite: column %d is not bytes", col)
	}
	return b, nil
}

func (c *Cursor) ToInteger(col int) (int64, error) {
	v, err := c.at(col)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("sqlite: column %d is not an integer", col)
	}
}

func (c *Cursor) ToDouble(col int) (float64, error) {
	v, err := c.at(col)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("sqlite: column %d is not a float", col)
	}
	return f, nil
}

func (c *Cursor) ToBool(col int) (bool, error) {
	v, err := c.at(col)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	default:
		return false, fmt.Errorf("sqlite: column %d is not a bool", col)
	}
}

func (c *Cursor) ToTypedData(col int) (any, error) { return c.at(col) }

func (c *Cursor) ToCustomData(col int, field *schema.Field) (any, error) {
	v, err := c.at(col)
	if err != nil {
		return nil, err
	}
	if field == nil || field.CustomValidate == nil {
		return v, nil
	}
	return field.CustomValidate(v)
}

func (c *Cursor) at(col int) (any, error) {
	if col < 0 || col >= len(c.vals) {
		return nil, fmt.Errorf("sqlite: column index %d out of range", col)
	}
	return c.vals[col], nil
}
