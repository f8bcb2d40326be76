package ast

import (
	"sync"
)

// Node pools, one per concrete node type that participates in Release()
// recycling. Ownership of the New*/Release pair for a given type lives in
// that type's own file (column.go, table.go, value.go, where.go, join.go,
// orderby.go); this file holds the shared pool variables and the
// constructors/releasers for SelectStmt, BinaryExpr, LimitClause, Array and
// GroupByClause, plus the chain-node pools (WhereCondition, JoinCondition, JoinConditionNode,
// SubqueryExpr) that back the linked-list node types.
var (
	selectStmtPool = sync.Pool{
		New: func() any {
			return &SelectStmt{
				Columns: make([]Node, 0, 10),
				Joins:   make([]*JoinClause, 0, 4),
				OrderBy: make([]*OrderByClause, 0, 4),
			}
		},
	}

	columnPool = sync.Pool{
		New: func() any { return &Column{} },
	}

	tablePool = sync.Pool{
		New: func() any { return &Table{} },
	}

	valuePool = sync.Pool{
		New: func() any { return &Value{} },
	}

	binaryExprPool = sync.Pool{
		New: func() any { return &BinaryExpr{} },
	}

	whereClausePool = sync.Pool{
		New: func() any { return &WhereClause{} },
	}

	whereConditionPool = sync.Pool{
		New: func() any { return &WhereCondition{} },
	}

	limitClausePool = sync.Pool{
		New: func() any { return &LimitClause{} },
	}

	orderByClausePool = sync.Pool{
		New: func() any { return &OrderByClause{} },
	}

	arrayPool = sync.Pool{
		New: func() any {
			return &Array{Values: make([]Value, 0, 8)}
		},
	}

	groupByClausePool = sync.Pool{
		New: func() any {
			return &GroupByClause{Exprs: make([]Node, 0, 4)}
		},
	}

	joinClausePool = sync.Pool{
		New: func() any { return &JoinClause{} },
	}

	joinConditionPool = sync.Pool{
		New: func() any { return &JoinCondition{} },
	}

	joinConditionNodePool = sync.Pool{
		New: func() any { return &JoinConditionNode{} },
	}

	subqueryExprPool = sync.Pool{
		New: func() any { return &SubqueryExpr{} },
	}
)

// NewSelectStmt creates a new SelectStmt with preallocated slices for performance
func NewSelectStmt() *SelectStmt {
	s := selectStmtPool.Get().(*SelectStmt)
	s.Columns = s.Columns[:0]
	s.From = nil
	s.Joins = s.Joins[:0]
	s.Where = nil
	s.GroupBy = nil
	s.Having = nil
	s.OrderBy = s.OrderBy[:0]
	s.Limit = nil
	s.ForUpdate = false
	return s
}

func (s *SelectStmt) Release() {
	for _, col := range s.Columns {
		if releasable, ok := col.(interface{ Release() }); ok {
			releasable.Release()
		}
	}
	if s.From != nil {
		s.From.Release()
	}
	for _, join := range s.Joins {
		join.Release()
	}
	if s.Where != nil {
		s.Where.Release()
	}
	if s.GroupBy != nil {
		s.GroupBy.Release()
	}
	for _, order := range s.OrderBy {
		order.Release()
	}
	if s.Limit != nil {
		s.Limit.Release()
	}
	selectStmtPool.Put(s)
}

func NewBinaryExpr(left Node, op string, right Node) *BinaryExpr {
	b := binaryExprPool.Get().(*BinaryExpr)
	b.Left = left
	b.Operator = op
	b.Right = right
	return b
}

func (b *BinaryExpr) Release() {
	if releasable, ok := b.Left.(interface{ Release() }); ok {
		releasable.Release()
	}
	if releasable, ok := b.Right.(interface{ Release() }); ok {
		releasable.Release()
	}
	binaryExprPool.Put(b)
}

func NewLimitClause(count, offset *int) *LimitClause {
	l := limitClausePool.Get().(*LimitClause)
	l.Count = count
	l.Offset = offset
	return l
}

func (l *LimitClause) Release() {
	limitClausePool.Put(l)
}

func NewArray(values []any) *Array {
	a := arrayPool.Get().(*Array)
	a.Values = a.Values[:0]

	for _, val := range values {
		a.Values = append(a.Values, Value{Val: val, ValueType: classifyValue(val)})
	}
	return a
}

func (a *Array) Release() {
	a.Values = a.Values[:0]
	arrayPool.Put(a)
}

func NewGroupByClause(exprs []Node) *GroupByClause {
	g := groupByClausePool.Get().(*GroupByClause)
	g.Exprs = g.Exprs[:0]
	g.Exprs = append(g.Exprs, exprs...)
	return g
}

func (g *GroupByClause) Release() {
	for _, expr := range g.Exprs {
		if releasable, ok := expr.(interface{ Release() }); ok {
			releasable.Release()
		}
	}
	g.Exprs = g.Exprs[:0]
	groupByClausePool.Put(g)
}
