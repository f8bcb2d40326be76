package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/schema"
)

// Cursor implements backend.Cursor over pgx.Rows.
type Cursor struct {
	rows   pgx.Rows
	oidMap map[uint32]backend.StorageType
	values []any
}

func (c *Cursor) Next(ctx context.Context) bool {
	if !c.rows.Next() {
		return false
	}
	vals, err := c.rows.Values()
	c.values = vals
	return err == nil
}

func (c *Cursor) Err() error { return c.rows.Err() }

func (c *Cursor) Close() error {
	c.rows.Close()
	return nil
}

func (c *Cursor) Columns() []string {
	fds := c.rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names
}

func (c *Cursor) IsNull(col int) bool {
	if col < 0 || col >= len(c.values) {
		return true
	}
	return c.values[col] == nil
}

func (c *Cursor) ToString(col int) (string, error) {
	v, err := c.at(col)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func (c *Cursor) ToBytes(col int) ([]byte, error) {
	v, err := c.at(col)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, fmt.Errorf("postgres: column %d is not bytes", col)
}

func (c *Cursor) ToInteger(col int) (int64, error) {
	v, err := c.at(col)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("postgres: column %d is not an integer", col)
	}
}

func (c *Cursor) ToDouble(col int) (float64, error) {
	v, err := c.at(col)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("postgres: column %d is not a float", col)
	}
}

func (c *Cursor) ToBool(col int) (bool, error) {
	v, err := c.at(col)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("postgres: column %d is not a bool", col)
	}
	return b, nil
}

// ToTypedData returns col's value as pgx decoded it; the oid map built
// from pg_type at adapter-open time is not consulted here.
func (c *Cursor) ToTypedData(col int) (any, error) {
	v, err := c.at(col)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ToCustomData dispatches to field's registered custom validator as its
// decoder registered for the field's kind.
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
	if col < 0 || col >= len(c.values) {
		return nil, fmt.Errorf("postgres: column index %d out of range", col)
	}
	return c.values[col], nil
}
