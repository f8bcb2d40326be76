// Package dialect isolates per-backend SQL rendering rules: identifier
// quoting, bind-parameter syntax, and literal rendering for the debug dump
// path. The emitter walks one AST and asks its Dialect for every
// backend-specific byte, which is what keeps the query builder
// backend-neutral.
package dialect

type Dialect interface {
	// QuoteIdentifier wraps a table or column name in the backend's
	// identifier quotes. Names come from Scheme declarations, never from
	// query values.
	QuoteIdentifier(name string) string
	// Placeholder renders the n-th (1-based) bind parameter: "$n" on
	// PostgreSQL, "?" on the question-mark backends.
	Placeholder(n int) string
	// RenderValue renders v as an inline literal — used only for
	// diagnostics and EXPLAIN dumps, never for executed statements, which
	// always bind through Placeholder.
	RenderValue(v any) string
	// SupportsVector reports whether the backend can store tsvector-style
	// full-text columns natively.
	SupportsVector() bool
}
