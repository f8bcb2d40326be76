package ast

import "github.com/arion-db/arion/utils"

// OrderByClause is one ORDER BY expression. Next chains additional
// expressions; IsGroupEnd marks the last clause of a grouping run for
// emitters that window over tied groups.
type OrderByClause struct {
	Expr       Node
	Desc       bool
	Next       *OrderByClause
	IsGroupEnd bool
}

func NewOrderByClause(expr Node, desc bool) *OrderByClause {
	clause := orderByClausePool.Get().(*OrderByClause)
	clause.Expr = expr
	clause.Desc = desc
	clause.Next = nil
	clause.IsGroupEnd = false
	return clause
}

func (o *OrderByClause) Type() NodeType         { return NodeOrderBy }
func (o *OrderByClause) Accept(v Visitor) error { return v.VisitOrderByClause(o) }

func (o *OrderByClause) Fingerprint() uint64 {
	hash := utils.U64("order:")
	if o.Expr != nil {
		hash = utils.Mix64(hash, o.Expr.Fingerprint())
	}
	if o.Desc {
		hash = utils.Mix64(hash, utils.U64("desc"))
	}
	return hash
}

// Release returns the whole chain to the pool, innermost expression first.
func (o *OrderByClause) Release() {
	if o.Expr != nil {
		if releasable, ok := o.Expr.(interface{ Release() }); ok {
			releasable.Release()
		}
	}
	if o.Next != nil {
		o.Next.Release()
	}

	o.Expr = nil
	o.Desc = false
	o.Next = nil
	orderByClausePool.Put(o)
}
