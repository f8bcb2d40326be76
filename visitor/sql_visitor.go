package visitor

import (
	"strconv"
	"strings"
	"sync"

	"github.com/arion-db/arion/ast"
	"github.com/arion-db/arion/cache"
	"github.com/arion-db/arion/dialect"
)

// SQLVisitor walks an ast.Node tree and renders backend-specific SQL with
// positional/numbered parameter binding. The emitter never concatenates
// untrusted strings: every value reaches the output through Arg/the
// dialect's Placeholder, never through string formatting.
type SQLVisitor struct {
	sb      strings.Builder
	args    []any
	dialect dialect.Dialect
	qcache  cache.QueryCache
	mu      sync.Mutex
}

func NewSQLVisitor(d dialect.Dialect, q cache.QueryCache) *SQLVisitor {
	return &SQLVisitor{
		dialect: d,
		qcache:  q,
	}
}

func (v *SQLVisitor) Reset() {
	v.sb.Reset()
	v.args = v.args[:0]
}

// GetSB exposes the accumulated SQL text mid-build, for tests that inspect
// a partial render (e.g. a single clause) without going through Build.
func (v *SQLVisitor) GetSB() *strings.Builder { return &v.sb }

// Build renders root to SQL text plus its bound argument list. The SQL
// text is fingerprint-cached (ast fingerprints are structural, independent
// of bound values), but the argument list is always rebuilt from this call
// since args are per-invocation.
func (v *SQLVisitor) Build(root ast.Node) (string, []any, error) {
	fp := root.Fingerprint()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.sb.Reset()
	v.args = v.args[:0]

	if cached, ok := v.qcache.Get(fp); ok {
		if err := root.Accept(v); err != nil {
			return "", nil, err
		}
		return cached.SQL, v.args, nil
	}

	if err := root.Accept(v); err != nil {
		return "", nil, err
	}

	sql := v.sb.String()
	v.qcache.Set(fp, sql, nil, nil, "", "")
	return sql, v.args, nil
}

func (v *SQLVisitor) Release() {
	v.Reset()
}

func (v *SQLVisitor) Arg(a any) {
	v.args = append(v.args, a)
}

func (v *SQLVisitor) VisitSelect(s *ast.SelectStmt) error {
	v.sb.WriteString("SELECT ")

	if len(s.Columns) == 0 {
		v.sb.WriteString("*")
	}
	for i, col := range s.Columns {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := col.Accept(v); err != nil {
			return err
		}
	}

	if s.From != nil {
		if err := s.From.Accept(v); err != nil {
			return err
		}
	}

	for _, j := range s.Joins {
		if err := j.Accept(v); err != nil {
			return err
		}
	}

	if s.Where != nil {
		if err := s.Where.Accept(v); err != nil {
			return err
		}
	}

	if s.GroupBy != nil {
		if err := s.GroupBy.Accept(v); err != nil {
			return err
		}
	}

	if s.Having != nil && s.Having.First != nil {
		v.sb.WriteString(" HAVING ")
		if err := v.writeWhereChain(s.Having); err != nil {
			return err
		}
	}

	if len(s.OrderBy) > 0 {
		v.sb.WriteString(" ORDER BY ")
		for i, ord := range s.OrderBy {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := ord.Accept(v); err != nil {
				return err
			}
		}
	}

	if s.Limit != nil {
		if err := s.Limit.Accept(v); err != nil {
			return err
		}
	}

	if s.ForUpdate {
		v.sb.WriteString(" FOR UPDATE")
	}

	return nil
}

func (v *SQLVisitor) VisitInsert(stmt *ast.InsertStmt) error {
	v.sb.WriteString("INSERT INTO ")
	if stmt.Table != nil {
		v.sb.WriteString(v.dialect.QuoteIdentifier(stmt.Table.Name))
	}

	v.sb.WriteString(" (")
	for i, col := range stmt.Columns {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteString(v.dialect.QuoteIdentifier(col))
	}
	v.sb.WriteString(") VALUES ")

	for r, row := range stmt.Values {
		if r > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteByte('(')
		for i, val := range row {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := val.Accept(v); err != nil {
				return err
			}
		}
		v.sb.WriteByte(')')
	}

	if oc := stmt.OnConflict; oc != nil {
		v.sb.WriteString(" ON CONFLICT")
		if len(oc.Columns) > 0 {
			v.sb.WriteString(" (")
			for i, c := range oc.Columns {
				if i > 0 {
					v.sb.WriteString(", ")
				}
				v.sb.WriteString(v.dialect.QuoteIdentifier(c))
			}
			v.sb.WriteByte(')')
		}
		if oc.DoNothing || len(oc.UpdateSet) == 0 {
			v.sb.WriteString(" DO NOTHING")
		} else {
			v.sb.WriteString(" DO UPDATE SET ")
			first := true
			for col, val := range oc.UpdateSet {
				if !first {
					v.sb.WriteString(", ")
				}
				first = false
				v.sb.WriteString(v.dialect.QuoteIdentifier(col))
				v.sb.WriteString(" = ")
				if err := val.Accept(v); err != nil {
					return err
				}
			}
		}
	}

	if len(stmt.Returning) > 0 {
		v.sb.WriteString(" RETURNING ")
		for i, r := range stmt.Returning {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := r.Accept(v); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *SQLVisitor) VisitUpdate(stmt *ast.UpdateStmt) error {
	v.sb.WriteString("UPDATE ")
	if stmt.Table != nil {
		v.sb.WriteString(v.dialect.QuoteIdentifier(stmt.Table.Name))
	}
	v.sb.WriteString(" SET ")

	first := true
	for col, val := range stmt.Set {
		if !first {
			v.sb.WriteString(", ")
		}
		first = false
		v.sb.WriteString(v.dialect.QuoteIdentifier(col))
		v.sb.WriteString(" = ")
		if err := val.Accept(v); err != nil {
			return err
		}
	}

	if stmt.Where != nil {
		if err := stmt.Where.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitDelete(stmt *ast.DeleteStmt) error {
	v.sb.WriteString("DELETE FROM ")
	if stmt.Table != nil {
		v.sb.WriteString(v.dialect.QuoteIdentifier(stmt.Table.Name))
	}
	if stmt.Where != nil {
		if err := stmt.Where.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitCreateTable(stmt *ast.CreateTableStmt) error {
	v.sb.WriteString("CREATE TABLE ")
	if stmt.IfNotExists {
		v.sb.WriteString("IF NOT EXISTS ")
	}
	if stmt.Table != nil {
		v.sb.WriteString(v.dialect.QuoteIdentifier(stmt.Table.Name))
	}
	v.sb.WriteString(" (")
	for i, col := range stmt.Columns {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteString(v.dialect.QuoteIdentifier(col.Name))
		v.sb.WriteByte(' ')
		if col.Type != nil {
			v.sb.WriteString(col.Type.Name)
		}
		if col.NotNull {
			v.sb.WriteString(" NOT NULL")
		}
		if col.PrimaryKey {
			v.sb.WriteString(" PRIMARY KEY")
		}
		if col.Unique {
			v.sb.WriteString(" UNIQUE")
		}
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitColumn(c *ast.Column) error {
	if c.Table != "" {
		v.sb.WriteString(v.dialect.QuoteIdentifier(c.Table))
		v.sb.WriteByte('.')
	}
	v.sb.WriteString(v.dialect.QuoteIdentifier(c.Name))

	if c.Alias != "" && c.Alias != c.Name {
		v.sb.WriteString(" AS ")
		v.sb.WriteString(v.dialect.QuoteIdentifier(c.Alias))
	}

	return nil
}

func (v *SQLVisitor) VisitTable(t *ast.Table) error {
	v.sb.WriteString(" FROM ")

	if t.Schema != "" {
		v.sb.WriteString(v.dialect.QuoteIdentifier(t.Schema))
		v.sb.WriteByte('.')
	}
	v.sb.WriteString(v.dialect.QuoteIdentifier(t.Name))

	if t.Alias != "" && t.Alias != t.Name {
		v.sb.WriteString(" AS ")
		v.sb.WriteString(v.dialect.QuoteIdentifier(t.Alias))
	}

	return nil
}

func (v *SQLVisitor) VisitValue(val *ast.Value) error {
	placeholder := v.dialect.Placeholder(len(v.args) + 1)
	v.sb.WriteString(placeholder)
	v.Arg(val.Val)
	return nil
}

func (v *SQLVisitor) VisitArray(a *ast.Array) error {
	v.sb.WriteByte('(')
	for i, val := range a.Values {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		v.sb.WriteString(v.dialect.Placeholder(len(v.args) + 1))
		v.Arg(val.Val)
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitFunction(function *ast.Function) error {
	v.sb.WriteString(function.Name)
	v.sb.WriteByte('(')
	for i, arg := range function.Args {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := arg.Accept(v); err != nil {
			return err
		}
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitGroupedExpr(g *ast.GroupedExpr) error {
	v.sb.WriteByte('(')
	err := g.Expr.Accept(v)
	v.sb.WriteByte(')')
	return err
}

func (v *SQLVisitor) VisitBinaryExpr(expr *ast.BinaryExpr) error {
	if err := expr.Left.Accept(v); err != nil {
		return err
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(expr.Operator)
	v.sb.WriteByte(' ')

	if err := expr.Right.Accept(v); err != nil {
		return err
	}

	return nil
}

func (v *SQLVisitor) VisitUnaryExpr(expr *ast.UnaryExpr) error {
	v.sb.WriteString(expr.Operator)
	v.sb.WriteByte(' ')
	return expr.Operand.Accept(v)
}

func (v *SQLVisitor) VisitSubqueryExpr(s *ast.SubqueryExpr) error {
	v.sb.WriteByte('(')
	err := s.Stmt.Accept(v)
	v.sb.WriteByte(')')
	return err
}

func (v *SQLVisitor) VisitPostfixExpr(expr *ast.PostfixExpr) error {
	if err := expr.Operand.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(' ')
	v.sb.WriteString(expr.Operator)
	return nil
}

func (v *SQLVisitor) VisitBetweenExpr(expr *ast.BetweenExpr) error {
	if err := expr.Operand.Accept(v); err != nil {
		return err
	}
	if expr.Not {
		v.sb.WriteString(" NOT BETWEEN ")
	} else {
		v.sb.WriteString(" BETWEEN ")
	}
	if err := expr.Low.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" AND ")
	return expr.High.Accept(v)
}

// writeWhereChain renders a WhereClause's condition chain without the
// leading " WHERE "/" HAVING " keyword, so VisitWhereClause and the HAVING
// branch of VisitSelect can share it.
func (v *SQLVisitor) writeWhereChain(w *ast.WhereClause) error {
	for cond := w.First; cond != nil; cond = cond.Next {
		if cond != w.First {
			v.sb.WriteByte(' ')
			v.sb.WriteString(cond.Operator)
			v.sb.WriteByte(' ')
		}
		if err := cond.Condition.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitWhereClause(w *ast.WhereClause) error {
	v.sb.WriteString(" WHERE ")
	return v.writeWhereChain(w)
}

func (v *SQLVisitor) VisitJoinClause(clause *ast.JoinClause) error {
	v.sb.WriteByte(' ')
	v.sb.WriteString(clause.JoinType.Keyword())
	v.sb.WriteByte(' ')
	if clause.Table != nil {
		if clause.Table.Schema != "" {
			v.sb.WriteString(v.dialect.QuoteIdentifier(clause.Table.Schema))
			v.sb.WriteByte('.')
		}
		v.sb.WriteString(v.dialect.QuoteIdentifier(clause.Table.Name))
		if clause.Table.Alias != "" && clause.Table.Alias != clause.Table.Name {
			v.sb.WriteString(" AS ")
			v.sb.WriteString(v.dialect.QuoteIdentifier(clause.Table.Alias))
		}
	}
	if clause.Conditions != nil && clause.Conditions.First != nil {
		v.sb.WriteString(" ON ")
		for n := clause.Conditions.First; n != nil; n = n.Next {
			if n != clause.Conditions.First {
				v.sb.WriteByte(' ')
				v.sb.WriteString(n.Operator)
				v.sb.WriteByte(' ')
			}
			if err := n.Condition.Accept(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *SQLVisitor) VisitGroupBy(g *ast.GroupByClause) error {
	if len(g.Exprs) == 0 {
		return nil
	}
	v.sb.WriteString(" GROUP BY ")
	for i, expr := range g.Exprs {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := expr.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitOrderByClause(clause *ast.OrderByClause) error {
	err := clause.Expr.Accept(v)

	if clause.Desc {
		v.sb.WriteString(" DESC")
	}
	return err
}

func (v *SQLVisitor) VisitLimitClause(clause *ast.LimitClause) error {
	v.sb.WriteString(" LIMIT ")
	if clause.Count != nil {
		v.sb.WriteString(strconv.Itoa(*clause.Count))
	}

	if clause.Offset != nil {
		v.sb.WriteString(" OFFSET ")
		v.sb.WriteString(strconv.Itoa(*clause.Offset))
	}

	return nil
}

var _ ast.Visitor = (*SQLVisitor)(nil)
