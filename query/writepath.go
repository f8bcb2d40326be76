package query

import (
	"fmt"

	"github.com/arion-db/arion/ast"
	"github.com/arion-db/arion/schema"
)

// WriteStatement pairs a compiled statement with a human-readable label for
// diagnostics and for deciding execution order: Primary always runs first,
// PostUpdates run after it in the same transaction; a failure rolls the
// whole transaction back.
type WriteStatement struct {
	Label string
	Node  ast.Node
}

// WritePlan is the output of CompileCreate/CompileUpdate/CompileDelete: one
// primary statement plus zero or more post-update statements.
type WritePlan struct {
	Primary     WriteStatement
	PostUpdates []WriteStatement
}

// CompileCreate emits an INSERT for scheme's scalar fields plus a
// post-update statement per Array/Set/View/FullTextView field present in
// values. An Object field is written only as its own column value in the
// INSERT; no nested object is created for it.
func CompileCreate(scheme *schema.Scheme, values map[string]any) (*WritePlan, error) {
	insert := &ast.InsertStmt{
		Table:     ast.NewTable("", scheme.TableName(), ""),
		Returning: []ast.Node{ast.NewColumn("", scheme.ColumnName(OID), "")},
	}

	row := make([]ast.Node, 0, len(values))
	for _, f := range scheme.Fields {
		if !f.IsScalar() || f.ReadOnly {
			continue
		}
		v, present := values[f.Name]
		if !present {
			if f.Default == nil {
				continue
			}
			dv, err := f.Default()
			if err != nil {
				return nil, fmt.Errorf("query: default for field %q: %w", f.Name, err)
			}
			v = dv
		}
		if f.Filter != nil {
			fv, err := f.Filter(v)
			if err != nil {
				return nil, fmt.Errorf("query: filter for field %q: %w", f.Name, err)
			}
			v = fv
		}
		insert.Columns = append(insert.Columns, scheme.ColumnName(f.Name))
		row = append(row, ast.NewValue(v))
	}
	insert.Values = [][]ast.Node{row}

	plan := &WritePlan{Primary: WriteStatement{Label: "insert:" + scheme.Name, Node: insert}}
	plan.PostUpdates = append(plan.PostUpdates, postUpdatesForWrite(scheme, values)...)
	return plan, nil
}

// CompileUpdate emits an UPDATE against the single row matching keyTerm,
// plus the same Array/Set/View/FullTextView post-update statements as
// CompileCreate for any such field present in values.
func CompileUpdate(scheme *schema.Scheme, keyTerm Term, values map[string]any) (*WritePlan, error) {
	update := &ast.UpdateStmt{
		Table: ast.NewTable("", scheme.TableName(), ""),
		Set:   make(map[string]ast.Node, len(values)),
	}

	for name, v := range values {
		f := scheme.FieldMap[name]
		if f == nil || !f.IsScalar() || f.ReadOnly {
			continue
		}
		if f.Filter != nil {
			fv, err := f.Filter(v)
			if err != nil {
				return nil, fmt.Errorf("query: filter for field %q: %w", f.Name, err)
			}
			v = fv
		}
		update.Set[scheme.ColumnName(f.Name)] = ast.NewValue(v)
	}

	cond, warn := termToNode(scheme, keyTerm)
	if warn != nil {
		return nil, fmt.Errorf("query: update key term invalid: %s", warn.Reason)
	}
	update.Where = ast.NewWhereClause(cond)

	plan := &WritePlan{Primary: WriteStatement{Label: "update:" + scheme.Name, Node: update}}
	plan.PostUpdates = append(plan.PostUpdates, postUpdatesForWrite(scheme, values)...)
	return plan, nil
}

// CompileDelete emits a DELETE for the single row matching keyTerm. Set/
// Object on-remove policies are enforced by migration-generated
// triggers, not by statements emitted here.
func CompileDelete(scheme *schema.Scheme, keyTerm Term) (*WritePlan, error) {
	cond, warn := termToNode(scheme, keyTerm)
	if warn != nil {
		return nil, fmt.Errorf("query: delete key term invalid: %s", warn.Reason)
	}
	del := &ast.DeleteStmt{
		Table: ast.NewTable("", scheme.TableName(), ""),
		Where: ast.NewWhereClause(cond),
	}
	return &WritePlan{Primary: WriteStatement{Label: "delete:" + scheme.Name, Node: del}}, nil
}

// postUpdatesForWrite builds the nested-write statements for every
// Array/Set/View/FullTextView field present in values. A View's ViewFn
// yields the projected target object id(s); the view table is cleared and
// re-filled like a Set's join table. Statements are keyed by the
// object's own row (assumed already-known via a prior RETURNING __oid, so
// these statements reference the scheme's __oid column, which the caller
// replaces with the concrete id via BindOID before execution — kept
// abstract here since query has no transaction context of its own).
func postUpdatesForWrite(scheme *schema.Scheme, values map[string]any) []WriteStatement {
	var stmts []WriteStatement
	oidRef := ast.NewColumn("", scheme.ColumnName(OID), "")

	for _, f := range scheme.Fields {
		v, present := values[f.Name]
		if !present {
			continue
		}
		switch f.Kind {
		case schema.KindArray:
			table := scheme.JoinTableName(f.Name)
			del := &ast.DeleteStmt{
				Table: ast.NewTable("", table, ""),
				Where: ast.NewWhereClause(ast.NewBinaryExpr(ast.NewColumn("", "source_id", ""), ast.OpEqual, oidRef)),
			}
			stmts = append(stmts, WriteStatement{Label: "array_clear:" + f.Name, Node: del})

			elems := toSlice(v)
			if len(elems) > 0 {
				ins := &ast.InsertStmt{
					Table:   ast.NewTable("", table, ""),
					Columns: []string{"source_id", "value", "position"},
				}
				for i, e := range elems {
					ins.Values = append(ins.Values, []ast.Node{oidRef, ast.NewValue(e), ast.NewValue(i)})
				}
				stmts = append(stmts, WriteStatement{Label: "array_insert:" + f.Name, Node: ins})
			}

		case schema.KindSet:
			table := scheme.JoinTableName(f.Name)
			del := &ast.DeleteStmt{
				Table: ast.NewTable("", table, ""),
				Where: ast.NewWhereClause(ast.NewBinaryExpr(ast.NewColumn("", "source_id", ""), ast.OpEqual, oidRef)),
			}
			stmts = append(stmts, WriteStatement{Label: "set_clear:" + f.Name, Node: del})

			targets := toSlice(v)
			if len(targets) > 0 {
				ins := &ast.InsertStmt{
					Table:   ast.NewTable("", table, ""),
					Columns: []string{"source_id", "target_id"},
				}
				for _, t := range targets {
					ins.Values = append(ins.Values, []ast.Node{oidRef, ast.NewValue(t)})
				}
				stmts = append(stmts, WriteStatement{Label: "set_insert:" + f.Name, Node: ins})
			}

		case schema.KindView:
			raw, err := callView(f, v)
			if err != nil {
				continue
			}
			table := scheme.ViewTableName(f.Name)
			del := &ast.DeleteStmt{
				Table: ast.NewTable("", table, ""),
				Where: ast.NewWhereClause(ast.NewBinaryExpr(ast.NewColumn("", "source_id", ""), ast.OpEqual, oidRef)),
			}
			stmts = append(stmts, WriteStatement{Label: "view_clear:" + f.Name, Node: del})

			targets := toSlice(raw)
			if len(targets) > 0 {
				ins := &ast.InsertStmt{
					Table:   ast.NewTable("", table, ""),
					Columns: []string{"source_id", "target_id"},
				}
				for _, target := range targets {
					ins.Values = append(ins.Values, []ast.Node{oidRef, ast.NewValue(target)})
				}
				stmts = append(stmts, WriteStatement{Label: "view_insert:" + f.Name, Node: ins})
			}

		case schema.KindFullTextView:
			raw, err := callView(f, v)
			if err != nil {
				continue
			}
			table := scheme.FullTextTableName(f.Name)
			del := &ast.DeleteStmt{
				Table: ast.NewTable("", table, ""),
				Where: ast.NewWhereClause(ast.NewBinaryExpr(ast.NewColumn("", "object", ""), ast.OpEqual, oidRef)),
			}
			stmts = append(stmts, WriteStatement{Label: "fulltext_clear:" + f.Name, Node: del})

			ins := &ast.InsertStmt{
				Table:   ast.NewTable("", table, ""),
				Columns: []string{"object", "word"},
				Values:  [][]ast.Node{{oidRef, ast.NewValue(raw)}},
			}
			stmts = append(stmts, WriteStatement{Label: "fulltext:" + f.Name, Node: ins})
		}
	}
	return stmts
}

func callView(f *schema.Field, v any) (any, error) {
	if f.ViewFn == nil {
		return v, nil
	}
	return f.ViewFn(v)
}

// BindOID replaces the object-id column references postUpdatesForWrite
// leaves in each post-update statement with the concrete oid, once the
// primary statement's RETURNING has produced it. Statements are mutated in
// place; calling it twice is harmless (a bound value no longer matches the
// column test).
func (p *WritePlan) BindOID(scheme *schema.Scheme, oid int64) {
	oidCol := scheme.ColumnName(OID)
	for _, st := range p.PostUpdates {
		bindOIDNode(st.Node, oidCol, oid)
	}
}

func bindOIDNode(n ast.Node, oidCol string, oid int64) {
	switch s := n.(type) {
	case *ast.InsertStmt:
		for _, row := range s.Values {
			for i, cell := range row {
				if c, ok := cell.(*ast.Column); ok && c.Name == oidCol {
					row[i] = ast.NewValue(oid)
				}
			}
		}
	case *ast.DeleteStmt:
		if s.Where == nil {
			return
		}
		for wc := s.Where.First; wc != nil; wc = wc.Next {
			be, ok := wc.Condition.(*ast.BinaryExpr)
			if !ok {
				continue
			}
			if c, ok := be.Right.(*ast.Column); ok && c.Name == oidCol {
				be.Right = ast.NewValue(oid)
			}
		}
	}
}
