package ast

import (
	"hash/fnv"

	"github.com/arion-db/arion/utils"
)

// PostfixExpr renders "<operand> <operator>", the suffix counterpart to
// UnaryExpr's prefix form — needed for IS NULL/IS NOT NULL, which put the
// keyword after the operand.
type PostfixExpr struct {
	Operand  Node
	Operator string
}

func (p *PostfixExpr) Type() NodeType         { return NodePostfixExpr }
func (p *PostfixExpr) Accept(v Visitor) error { return v.VisitPostfixExpr(p) }
func (p *PostfixExpr) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("postfix:" + p.Operator))
	if p.Operand != nil {
		h.Write(utils.U64ToBytes(p.Operand.Fingerprint()))
	}
	return h.Sum64()
}

// BetweenExpr renders "<operand> [NOT] BETWEEN <low> AND <high>", a
// ternary comparison BinaryExpr can't express.
type BetweenExpr struct {
	Operand    Node
	Low, High  Node
	Not        bool
}

func (b *BetweenExpr) Type() NodeType         { return NodeBetweenExpr }
func (b *BetweenExpr) Accept(v Visitor) error { return v.VisitBetweenExpr(b) }
func (b *BetweenExpr) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("between:"))
	if b.Not {
		h.Write([]byte("not:"))
	}
	if b.Operand != nil {
		h.Write(utils.U64ToBytes(b.Operand.Fingerprint()))
	}
	if b.Low != nil {
		h.Write(utils.U64ToBytes(b.Low.Fingerprint()))
	}
	if b.High != nil {
		h.Write(utils.U64ToBytes(b.High.Fingerprint()))
	}
	return h.Sum64()
}
