package ast

// Operator is the SQL text of a comparison or connective; expressions
// carry the rendered form directly so the emitter never needs a lookup
// table.
type Operator = string

// Comparison
const (
	OpEqual              = "="
	OpNotEqual           = "<>"
	OpLessThan           = "<"
	OpLessThanOrEqual    = "<="
	OpGreaterThan        = ">"
	OpGreaterThanOrEqual = ">="
)

// Logical connectives
const (
	OpAnd = "AND"
	OpOr  = "OR"
	OpNot = "NOT"
)

// Pattern matching
const (
	OpLike     = "LIKE"
	OpNotLike  = "NOT LIKE"
	OpILike    = "ILIKE"
	OpNotILike = "NOT ILIKE"
)

// Membership and subqueries
const (
	OpIn        = "IN"
	OpNotIn     = "NOT IN"
	OpExists    = "EXISTS"
	OpNotExists = "NOT EXISTS"
)

// Null tests (postfix)
const (
	OpIsNull    = "IS NULL"
	OpIsNotNull = "IS NOT NULL"
)

// Ranges
const (
	OpBetween    = "BETWEEN"
	OpNotBetween = "NOT BETWEEN"
)

// Containment and full-text (PostgreSQL)
const (
	OpArrayContains    = "@>"
	OpArrayContainedBy = "<@"
	OpArrayOverlap     = "&&"
	OpTsMatch          = "@@"
)
