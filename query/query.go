package query

import "github.com/arion-db/arion/schema"

// Order names the field (or the reserved object-id / full-text-rank
// pseudo-fields) a Query sorts by. Restricted to exactly one field so
// that pagination stability only has to reason
// about a single ordering column, so Query.Order is a single value, not a
// slice, enforcing that at the type level.
type Order struct {
	Field string
	Desc  bool
	Rank  bool // order by the full-text rank of Field rather than its value
}

// OID is the reserved object-id pseudo-field name, usable as an Order.Field
// or Term.Field even though it has no corresponding schema.Field.
const OID = "__oid"

// Query composes a single select against one scheme: an And-combined term
// list, an optional ordering, limit/offset, and an include/exclude field
// set resolved by FieldResolver. Building one accumulates errors rather
// than failing immediately, in the BaseBuilder style: call Errors() once
// construction is done (txn.Worker.Select returns the first one instead of
// running the query; CompileSelect does not check them).
type Query struct {
	Scheme *schema.Scheme

	Terms []Term
	Order *Order

	Limit     *int
	Offset    *int
	SoftLimit *int

	Include []string
	Exclude []string

	ForUpdate bool

	errs []error
}

// New starts a Query against scheme.
func New(scheme *schema.Scheme) *Query {
	return &Query{Scheme: scheme}
}

// Where adds terms, ANDed with whatever is already present.
func (q *Query) Where(terms ...Term) *Query {
	q.Terms = append(q.Terms, terms...)
	return q
}

// OrderBy sorts by field, ascending unless desc is true.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.Order = &Order{Field: field, Desc: desc}
	return q
}

// OrderByRank sorts by the full-text rank of field.
func (q *Query) OrderByRank(field string, desc bool) *Query {
	q.Order = &Order{Field: field, Desc: desc, Rank: true}
	return q
}

// WithLimit sets a hard LIMIT/OFFSET.
func (q *Query) WithLimit(n int) *Query {
	q.Limit = &n
	return q
}

// WithOffset sets OFFSET independently of WithLimit.
func (q *Query) WithOffset(n int) *Query {
	q.Offset = &n
	return q
}

// WithSoftLimit requests the windowed-CTE pagination rewrite,
// returning every row tied at the page boundary. Only
// meaningful alongside OrderBy/OrderByRank.
func (q *Query) WithSoftLimit(n int) *Query {
	q.SoftLimit = &n
	return q
}

// Only restricts the result's fields to include (still respecting
// ForceExclude fields unless explicitly named there too).
func (q *Query) Only(fields ...string) *Query {
	q.Include = append(q.Include, fields...)
	return q
}

// Without additionally excludes fields from the result.
func (q *Query) Without(fields ...string) *Query {
	q.Exclude = append(q.Exclude, fields...)
	return q
}

// Locking requests FOR UPDATE row locking.
func (q *Query) Locking() *Query {
	q.ForUpdate = true
	return q
}

// AddError records a construction-time error to surface through Errors()
// instead of panicking mid-chain.
func (q *Query) AddError(err error) {
	if err != nil {
		q.errs = append(q.errs, err)
	}
}

// HasErrors reports whether any construction error was recorded.
func (q *Query) HasErrors() bool { return len(q.errs) > 0 }

// Errors returns every accumulated construction error.
func (q *Query) Errors() []error { return q.errs }

// needsSoftLimitRewrite reports whether the ordering demands the two-stage
// CTE form: a full-text rank order, or an order field that isn't unique.
func (q *Query) needsSoftLimitRewrite() bool {
	if q.SoftLimit == nil || q.Order == nil {
		return false
	}
	if q.Order.Rank {
		return true
	}
	if q.Order.Field == OID {
		return false
	}
	f := q.Scheme.FieldMap[q.Order.Field]
	return f == nil || !f.Unique
}

// NeedsSoftLimit reports whether executing q requires the windowed-CTE
// form (BuildSoftLimit) instead of a plain CompileSelect: a requested soft
// limit whose order field is non-unique or a full-text rank.
func (q *Query) NeedsSoftLimit() bool { return q.needsSoftLimitRewrite() }
