package query

import (
	"fmt"

	"github.com/arion-db/arion/ast"
	"github.com/arion-db/arion/dialect"
)

// sqlBuilder is the subset of visitor.SQLVisitor BuildSoftLimit needs,
// kept narrow so this package doesn't import visitor (which would create
// query -> visitor -> ast -> query-shaped coupling beyond what's needed;
// visitor never imports query).
type sqlBuilder interface {
	Build(root ast.Node) (string, []any, error)
}

// BuildSoftLimit renders q's two-stage windowed-CTE form, used instead
// of CompileSelect whenever
// q.needsSoftLimitRewrite() is true (a non-unique order field, or a
// full-text rank order). It produces:
//
//	WITH u AS (SELECT __oid, <order> FROM s WHERE <pred> ORDER BY <order> LIMIT <n>)
//	SELECT ... FROM s WHERE s.__oid IN (SELECT __oid FROM u)
//	  OR (<order-field> = (SELECT MIN/MAX(<order-field>) FROM u)) ORDER BY <order>
//
// returning every row tied at the page boundary for stable pagination.
func BuildSoftLimit(q *Query, b sqlBuilder, d dialect.Dialect) (string, []any, []Warning, error) {
	if q.SoftLimit == nil || q.Order == nil {
		return "", nil, nil, fmt.Errorf("query: soft limit requires SoftLimit and OrderBy")
	}

	oidCol := ast.NewColumn("", q.Scheme.ColumnName(OID), "")
	var orderCol ast.Node
	if q.Order.Rank {
		orderCol = &ast.Function{Name: "ts_rank", Args: []ast.Node{ast.NewColumn("", q.Scheme.ColumnName(q.Order.Field), "")}}
	} else {
		orderCol = ast.NewColumn("", q.Scheme.ColumnName(q.Order.Field), "")
	}

	cte := &ast.SelectStmt{
		Columns: []ast.Node{oidCol, orderCol},
		From:    ast.NewTable("", q.Scheme.TableName(), ""),
		OrderBy: []*ast.OrderByClause{ast.NewOrderByClause(orderCol, q.Order.Desc)},
		Limit:   ast.NewLimitClause(q.SoftLimit, nil),
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
		cte.AddWhereCondition(node, op)
	}

	cteSQL, cteArgs, err := b.Build(cte)
	if err != nil {
		return "", nil, warnings, err
	}

	resolver := Resolve(q.Scheme, q.Include, q.Exclude)
	cols := make([]ast.Node, 0, len(resolver.Columns))
	for _, f := range resolver.Columns {
		cols = append(cols, ast.NewColumn("", q.Scheme.ColumnName(f.Name), ""))
	}
	if len(cols) == 0 {
		cols = ast.AllColumns()
	}

	// the page boundary is the last row of u: its largest value when
	// ascending, its smallest when descending
	boundaryFn := "MIN"
	if !q.Order.Desc {
		boundaryFn = "MAX"
	}

	outer := &ast.SelectStmt{
		Columns: cols,
		From:    ast.NewTable("", q.Scheme.TableName(), ""),
		Where: ast.NewWhereClause(ast.NewBinaryExpr(
			oidCol, ast.OpIn,
			ast.NewSubqueryExpr(&ast.SelectStmt{
				Columns: []ast.Node{ast.NewColumn("", q.Scheme.ColumnName(OID), "")},
				From:    ast.NewTable("", "u", ""),
			}),
		)),
		OrderBy: []*ast.OrderByClause{ast.NewOrderByClause(orderCol, q.Order.Desc)},
	}
	outer.Where.Add(&ast.GroupedExpr{Expr: ast.NewBinaryExpr(
		orderCol, ast.OpEqual,
		ast.NewSubqueryExpr(&ast.SelectStmt{
			Columns: []ast.Node{&ast.Function{Name: boundaryFn, Args: []ast.Node{orderCol}}},
			From:    ast.NewTable("", "u", ""),
		}),
	)}, ast.OpOr)

	outerSQL, outerArgs, err := b.Build(outer)
	if err != nil {
		return "", nil, warnings, err
	}

	sql := fmt.Sprintf("WITH u AS (%s) %s", cteSQL, outerSQL)
	args := make([]any, 0, len(cteArgs)+len(outerArgs))
	args = append(args, cteArgs...)
	args = append(args, outerArgs...)

	return sql, args, warnings, nil
}
