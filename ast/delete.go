package ast

import (
	"hash/fnv"

	"github.com/arion-db/arion/utils"
)

type DeleteStmt struct {
	Table *Table
	Where *WhereClause
}

func (d *DeleteStmt) Type() NodeType         { return NodeDelete }
func (d *DeleteStmt) Accept(v Visitor) error { return v.VisitDelete(d) }
func (d *DeleteStmt) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("delete:"))
	if d.Table != nil {
		h.Write(utils.U64ToBytes(d.Table.Fingerprint()))
	}
	if d.Where != nil {
		h.Write(utils.U64ToBytes(d.Where.Fingerprint()))
	}
	return h.Sum64()
}
