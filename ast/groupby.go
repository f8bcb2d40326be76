package ast

import "github.com/arion-db/arion/utils"

// GroupByClause lists grouping expressions in declaration order.
type GroupByClause struct {
	Exprs []Node
}

func (g *GroupByClause) Type() NodeType         { return NodeGroupBy }
func (g *GroupByClause) Accept(v Visitor) error { return v.VisitGroupBy(g) }

func (g *GroupByClause) Fingerprint() uint64 {
	hash := utils.U64("groupby:")
	for _, expr := range g.Exprs {
		hash = utils.Mix64(hash, expr.Fingerprint())
	}
	return hash
}
