package ast

import "github.com/arion-db/arion/utils"

// SubqueryExpr wraps a full statement used in expression position —
// EXISTS predicates and IN (SELECT ...) membership tests.
type SubqueryExpr struct {
	Stmt Node
}

func NewSubqueryExpr(stmt Node) *SubqueryExpr {
	s := subqueryExprPool.Get().(*SubqueryExpr)
	s.Stmt = stmt
	return s
}

func (s *SubqueryExpr) Type() NodeType         { return NodeSubqueryExpr }
func (s *SubqueryExpr) Accept(v Visitor) error { return v.VisitSubqueryExpr(s) }

func (s *SubqueryExpr) Fingerprint() uint64 {
	if s.Stmt == nil {
		return utils.U64("subquery:")
	}
	return utils.Mix64(utils.U64("subquery:"), s.Stmt.Fingerprint())
}
