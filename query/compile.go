package query

import (
	"fmt"

	"github.com/arion-db/arion/ast"
	"github.com/arion-db/arion/schema"
)

// checkIfComparationIsValid validates a comparator against a field's kind
// and flags: an incompatible combination is dropped
// rather than erroring the whole query.
func checkIfComparationIsValid(f *schema.Field, c Comparator) bool {
	switch c {
	case Equal, NotEqual, IsNull, IsNotNull:
		return true
	case LessThan, LessOrEqual, GreaterThan, GreaterOrEqual, Between, NotBetween:
		switch f.Kind {
		case schema.KindInteger, schema.KindFloat:
			return true
		default:
			return false
		}
	case In, NotIn:
		return f.IsScalar()
	case Includes:
		return f.Kind == schema.KindSet || f.Kind == schema.KindArray || f.Kind == schema.KindFullTextView
	case Prefix, Suffix, WordPart:
		return f.Kind == schema.KindText || f.Kind == schema.KindFullTextView
	default:
		return false
	}
}

// Warning records a term dropped by checkIfComparationIsValid, or an
// unknown field referenced by a term/order — surfaced to the caller
// instead of swallowed silently.
type Warning struct {
	Field      string
	Comparator Comparator
	Reason     string
}

func (w Warning) String() string {
	return fmt.Sprintf("query: dropped term on %q (%s): %s", w.Field, w.Comparator, w.Reason)
}

// resolveField looks up fieldName on scheme, treating OID as always valid
// even though it has no schema.Field.
func resolveField(scheme *schema.Scheme, fieldName string) (*schema.Field, bool) {
	if fieldName == OID {
		return &schema.Field{Name: OID, Kind: schema.KindInteger, Unique: true}, true
	}
	f := scheme.FieldMap[fieldName]
	return f, f != nil
}

// termToNode compiles a single term into a predicate ast.Node, or reports
// why it was dropped.
func termToNode(scheme *schema.Scheme, t Term) (ast.Node, *Warning) {
	f, ok := resolveField(scheme, t.Field)
	if !ok {
		return nil, &Warning{Field: t.Field, Comparator: t.Comparator, Reason: "unknown field"}
	}
	if !checkIfComparationIsValid(f, t.Comparator) {
		return nil, &Warning{Field: t.Field, Comparator: t.Comparator, Reason: "comparator incompatible with field type"}
	}

	col := ast.NewColumn("", scheme.ColumnName(t.Field), "")

	switch t.Comparator {
	case Equal:
		return ast.NewBinaryExpr(col, ast.OpEqual, ast.NewValue(t.Value)), nil
	case NotEqual:
		return ast.NewBinaryExpr(col, ast.OpNotEqual, ast.NewValue(t.Value)), nil
	case LessThan:
		return ast.NewBinaryExpr(col, ast.OpLessThan, ast.NewValue(t.Value)), nil
	case LessOrEqual:
		return ast.NewBinaryExpr(col, ast.OpLessThanOrEqual, ast.NewValue(t.Value)), nil
	case GreaterThan:
		return ast.NewBinaryExpr(col, ast.OpGreaterThan, ast.NewValue(t.Value)), nil
	case GreaterOrEqual:
		return ast.NewBinaryExpr(col, ast.OpGreaterThanOrEqual, ast.NewValue(t.Value)), nil
	case In:
		return ast.NewBinaryExpr(col, ast.OpIn, ast.NewArray(toSlice(t.Value))), nil
	case NotIn:
		return ast.NewBinaryExpr(col, ast.OpNotIn, ast.NewArray(toSlice(t.Value))), nil
	case Between:
		return &ast.BetweenExpr{Operand: col, Low: ast.NewValue(t.Value), High: ast.NewValue(t.Value2)}, nil
	case NotBetween:
		return &ast.BetweenExpr{Operand: col, Low: ast.NewValue(t.Value), High: ast.NewValue(t.Value2), Not: true}, nil
	case Includes:
		return compileIncludes(scheme, f, col, t.Value), nil
	case IsNull:
		return &ast.PostfixExpr{Operand: col, Operator: ast.OpIsNull}, nil
	case IsNotNull:
		return &ast.PostfixExpr{Operand: col, Operator: ast.OpIsNotNull}, nil
	case Prefix:
		return ast.NewBinaryExpr(col, ast.OpLike, ast.NewValue(fmt.Sprintf("%v%%", t.Value))), nil
	case Suffix:
		return ast.NewBinaryExpr(col, ast.OpLike, ast.NewValue(fmt.Sprintf("%%%v", t.Value))), nil
	case WordPart:
		return ast.NewBinaryExpr(col, ast.OpLike, ast.NewValue(fmt.Sprintf("%%%v%%", t.Value))), nil
	default:
		return nil, &Warning{Field: t.Field, Comparator: t.Comparator, Reason: "unsupported comparator"}
	}
}

// compileIncludes renders Set membership as an EXISTS subquery against the
// field's join table, and Array/FullTextView membership as an array/tsvector
// containment operator — the two shapes the single Includes
// comparator covers depending on the target field's storage.
func compileIncludes(scheme *schema.Scheme, f *schema.Field, col *ast.Column, value any) ast.Node {
	if f.Kind == schema.KindSet {
		joinTable := scheme.JoinTableName(f.Name)
		sub := &ast.SelectStmt{
			Columns: []ast.Node{ast.NewColumn("", "target_id", "")},
			From:    ast.NewTable("", joinTable, ""),
			Where: ast.NewWhereClause(ast.NewBinaryExpr(
				ast.NewColumn("", "source_id", ""), ast.OpEqual,
				ast.NewColumn("", scheme.ColumnName(OID), ""),
			)),
		}
		sub.Where.Add(ast.NewBinaryExpr(ast.NewColumn("", "target_id", ""), ast.OpEqual, ast.NewValue(value)), ast.OpAnd)
		return &ast.UnaryExpr{Operator: ast.OpExists, Operand: ast.NewSubqueryExpr(sub)}
	}
	return ast.NewBinaryExpr(col, ast.OpArrayContains, ast.NewArray(toSlice(value)))
}

func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return []any{v}
}

// CompileSelect turns q into a SELECT ast.SelectStmt, along with any terms
// dropped as incompatible. The soft-limit rewrite (needsSoftLimitRewrite)
// is handled separately by BuildSoftLimit; CompileSelect always produces
// the single-statement form.
func CompileSelect(q *Query) (*ast.SelectStmt, []Warning, error) {
	if q.Scheme == nil {
		return nil, nil, fmt.Errorf("query: Scheme is required")
	}

	resolver := Resolve(q.Scheme, q.Include, q.Exclude)
	cols := make([]ast.Node, 0, len(resolver.Columns)+1)
	// every object carries its id, whatever the include set says
	cols = append(cols, ast.NewColumn("", q.Scheme.ColumnName(OID), ""))
	for _, f := range resolver.Columns {
		cols = append(cols, ast.NewColumn("", q.Scheme.ColumnName(f.Name), ""))
	}

	stmt := &ast.SelectStmt{
		Columns:   cols,
		From:      ast.NewTable("", q.Scheme.TableName(), ""),
		ForUpdate: q.ForUpdate,
	}

	var warnings []Warning
	for i, t := range q.Terms {
		node, warn := termToNode(q.Scheme, t)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		op := ast.OpAnd
		if i == 0 {
			op = ""
		}
		stmt.AddWhereCondition(node, op)
	}

	if q.Order != nil {
		f, ok := resolveField(q.Scheme, q.Order.Field)
		if !ok {
			warnings = append(warnings, Warning{Field: q.Order.Field, Reason: "unknown order field"})
		} else {
			var orderCol ast.Node
			if q.Order.Rank && f.Kind == schema.KindFullTextView {
				orderCol = &ast.Function{Name: "ts_rank", Args: []ast.Node{ast.NewColumn("", q.Scheme.ColumnName(f.Name), "")}}
			} else if q.Order.Field == OID {
				orderCol = ast.NewColumn("", q.Scheme.ColumnName(OID), "")
			} else {
				orderCol = ast.NewColumn("", q.Scheme.ColumnName(f.Name), "")
			}
			stmt.OrderBy = []*ast.OrderByClause{ast.NewOrderByClause(orderCol, q.Order.Desc)}
		}
	}

	if q.Limit != nil || q.Offset != nil {
		stmt.Limit = ast.NewLimitClause(q.Limit, q.Offset)
	} else if q.SoftLimit != nil && !q.needsSoftLimitRewrite() {
		stmt.Limit = ast.NewLimitClause(q.SoftLimit, nil)
	}

	return stmt, warnings, nil
}

// TermNodes compiles terms against scheme into condition nodes, dropping
// invalid or unknown-field terms with warnings the same way CompileSelect
// does. Write paths use it to attach per-save conditions to an UPDATE or
// DELETE's WHERE chain.
func TermNodes(scheme *schema.Scheme, terms []Term) ([]ast.Node, []Warning) {
	var (
		nodes    []ast.Node
		warnings []Warning
	)
	for _, t := range terms {
		node, warn := termToNode(scheme, t)
		if warn != nil {
			warnings = append(warnings, *warn)
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, warnings
}
