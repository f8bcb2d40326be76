package ast

import (
	"hash/fnv"

	"github.com/arion-db/arion/utils"
)

// BinaryExpr and UnaryExpr are the only expression nodes still defined here;
// Column, Table, Value, Function, and GroupedExpr each live in their own
// file (column.go, table.go, value.go, function.go, grouped.go). Only
// Column, Table and Value have pooled constructors there; BinaryExpr's is
// in pool.go.
type BinaryExpr struct {
	Left     Node
	Operator string
	Right    Node
}

func (b *BinaryExpr) Type() NodeType         { return NodeBinaryExpr }
func (b *BinaryExpr) Accept(v Visitor) error { return v.VisitBinaryExpr(b) }
func (b *BinaryExpr) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("bin:" + b.Operator))
	if b.Left != nil {
		h.Write(utils.U64ToBytes(b.Left.Fingerprint()))
	}
	if b.Right != nil {
		h.Write(utils.U64ToBytes(b.Right.Fingerprint()))
	}
	return h.Sum64()
}

type UnaryExpr struct {
	Operator string
	Operand  Node
}

func (u *UnaryExpr) Type() NodeType         { return NodeUnaryExpr }
func (u *UnaryExpr) Accept(v Visitor) error { return v.VisitUnaryExpr(u) }
func (u *UnaryExpr) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("unary:" + u.Operator))
	if u.Operand != nil {
		h.Write(utils.U64ToBytes(u.Operand.Fingerprint()))
	}
	return h.Sum64()
}

func (u *UnaryExpr) Release() {
	if releasable, ok := u.Operand.(interface{ Release() }); ok {
		releasable.Release()
	}
}
