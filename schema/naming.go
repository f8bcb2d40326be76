package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

var pluralizeClient = pluralizer.NewClient()

// NamingStrategy derives physical table and column names from scheme and
// field names. The default strategy produces snake_case columns and
// pluralized snake_case tables; WithNaming on a Scheme swaps it out.
type NamingStrategy interface {
	// ColumnName converts a field name to a column name.
	ColumnName(fieldName string) string
	// TableName converts a scheme name to a table name.
	TableName(schemeName string) string
}

type snakeNaming struct {
	plural bool
}

// DefaultNamingStrategy returns snake_case columns with pluralized tables.
func DefaultNamingStrategy() NamingStrategy { return snakeNaming{plural: true} }

// SingularNamingStrategy returns snake_case columns with singular tables,
// for installations whose table names must match the scheme name exactly.
func SingularNamingStrategy() NamingStrategy { return snakeNaming{plural: false} }

func (n snakeNaming) ColumnName(fieldName string) string { return toSnakeCase(fieldName) }

func (n snakeNaming) TableName(schemeName string) string {
	snake := toSnakeCase(schemeName)
	if !n.plural {
		return snake
	}
	return pluralizeClient.Pluralize(snake, 2, false)
}

// initialisms whose snake form is not derivable by case-boundary splitting
var snakeSpecial = map[string]string{
	"ID": "id", "UUID": "uuid", "URL": "url", "API": "api",
	"JSON": "json", "XML": "xml", "SQL": "sql", "HTML": "html",
	"OAuth": "o_auth", "OAuth2": "o_auth2",
}

func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if s, ok := snakeSpecial[name]; ok {
		return s
	}
	// already snake_case
	if strings.Contains(name, "_") && strings.ToLower(name) == name {
		return name
	}

	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b; ABc -> a_bc (underscore before the last upper of a
			// run when a lower follows)
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
