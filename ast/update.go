package ast

import (
	"hash/fnv"

	"github.com/arion-db/arion/utils"
)

type UpdateStmt struct {
	Table *Table
	Set   map[string]Node
	Where *WhereClause
}

func (u *UpdateStmt) Type() NodeType         { return NodeUpdate }
func (u *UpdateStmt) Accept(v Visitor) error { return v.VisitUpdate(u) }
func (u *UpdateStmt) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("update:"))
	if u.Table != nil {
		h.Write(utils.U64ToBytes(u.Table.Fingerprint()))
	}
	for col := range u.Set {
		h.Write([]byte(col + ","))
	}
	if u.Where != nil {
		h.Write(utils.U64ToBytes(u.Where.Fingerprint()))
	}
	return h.Sum64()
}
