package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// SQLite renders statements for the mattn/go-sqlite3-backed backend. SQLite
// has no native bind-parameter numbering concept the driver exposes through
// database/sql beyond "?", so Placeholder ignores n.
type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (s SQLite) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (s SQLite) Placeholder(n int) string {
	return "?"
}

func (SQLite) RenderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64)
	case time.Time:
		return "'" + val.UTC().Format("2006-01-02 15:04:05.000000") + "'"
	case []byte:
		return fmt.Sprintf("X'%x'", val)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(val), "'", "''") + "'"
	}
}

// SupportsVector is false: SQLite's FTS integration is a
// token-interning side table, not a vector column type.
func (s SQLite) SupportsVector() bool {
	return false
}
