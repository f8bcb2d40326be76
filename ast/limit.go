package ast

import (
	"strconv"

	"github.com/arion-db/arion/utils"
)

// LimitClause carries LIMIT/OFFSET; nil means the clause part is absent.
type LimitClause struct {
	Count  *int
	Offset *int
}

func (l *LimitClause) Type() NodeType         { return NodeLimit }
func (l *LimitClause) Accept(v Visitor) error { return v.VisitLimitClause(l) }

func (l *LimitClause) Fingerprint() uint64 {
	s := "limit:"
	if l.Count != nil {
		s += strconv.Itoa(*l.Count)
	}
	s += ":"
	if l.Offset != nil {
		s += strconv.Itoa(*l.Offset)
	}
	return utils.U64(s)
}
