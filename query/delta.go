package query

import (
	"fmt"
	"time"

	"github.com/arion-db/arion/ast"
	"github.com/arion-db/arion/schema"
)

// DeltaQuery requests a scheme's change history since a cursor time,
// joining the main table with its shadow delta table on the object id
// and surfacing __d_action/__d_time/__d_object.
//
// Setting ViewField targets the named View field's delta shadow instead
// of the scheme's own. A view delta carries no action column — the record
// is (tag, object, time, user), where tag is the parent object the view
// row projected from — so the result surfaces __d_tag in place of
// __d_action; Tag further restricts it to one parent object.
type DeltaQuery struct {
	Scheme *schema.Scheme
	Since  time.Time

	ViewField string
	Tag       *int64
}

// CompileDelta builds the SELECT joining scheme's base table with its
// delta shadow table.
func CompileDelta(q DeltaQuery) (*ast.SelectStmt, error) {
	if q.ViewField != "" {
		return compileViewDelta(q)
	}
	if !q.Scheme.HasDelta {
		return nil, fmt.Errorf("query: scheme %q has no delta table", q.Scheme.Name)
	}

	base := ast.NewTable("", q.Scheme.TableName(), "s")

	stmt := &ast.SelectStmt{
		Columns: []ast.Node{
			ast.NewColumn("d", "object", "__d_object"),
			ast.NewColumn("d", "action", "__d_action"),
			ast.NewColumn("d", "time", "__d_time"),
		},
		From: base,
		Joins: []*ast.JoinClause{
			ast.NewJoinClause(ast.JoinInner, "", q.Scheme.DeltaTableName(), "d").On("",
				ast.NewBinaryExpr(ast.NewColumn("d", "object", ""), ast.OpEqual, ast.NewColumn("s", q.Scheme.ColumnName(OID), "")),
			),
		},
		Where: ast.NewWhereClause(ast.NewBinaryExpr(ast.NewColumn("d", "time", ""), ast.OpGreaterThan, ast.NewValue(q.Since))),
		OrderBy: []*ast.OrderByClause{
			ast.NewOrderByClause(ast.NewColumn("d", "time", ""), false),
		},
	}

	return stmt, nil
}

// compileViewDelta reads a View field's delta shadow directly — the view
// rows the deltas describe may already be gone, so there is no base-table
// join to make.
func compileViewDelta(q DeltaQuery) (*ast.SelectStmt, error) {
	f := q.Scheme.FieldMap[q.ViewField]
	if f == nil || f.Kind != schema.KindView {
		return nil, fmt.Errorf("query: %q is not a View field of scheme %q", q.ViewField, q.Scheme.Name)
	}
	if !f.ViewDelta {
		return nil, fmt.Errorf("query: view field %q.%q has no delta table", q.Scheme.Name, q.ViewField)
	}

	stmt := &ast.SelectStmt{
		Columns: []ast.Node{
			ast.NewColumn("d", "tag", "__d_tag"),
			ast.NewColumn("d", "object", "__d_object"),
			ast.NewColumn("d", "time", "__d_time"),
		},
		From:  ast.NewTable("", q.Scheme.ViewDeltaTableName(q.ViewField), "d"),
		Where: ast.NewWhereClause(ast.NewBinaryExpr(ast.NewColumn("d", "time", ""), ast.OpGreaterThan, ast.NewValue(q.Since))),
		OrderBy: []*ast.OrderByClause{
			ast.NewOrderByClause(ast.NewColumn("d", "time", ""), false),
		},
	}

	if q.Tag != nil {
		stmt.Where.Add(ast.NewBinaryExpr(ast.NewColumn("d", "tag", ""), ast.OpEqual, ast.NewValue(*q.Tag)), ast.OpAnd)
	}

	return stmt, nil
}
