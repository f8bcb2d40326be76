package ast

import (
	"hash/fnv"

	"github.com/arion-db/arion/utils"
)

type InsertStmt struct {
	Table      *Table
	Columns    []string
	Values     [][]Node
	Returning  []Node
	OnConflict *OnConflictClause
}

// OnConflictClause covers the subset of upsert behavior the write path
// needs: do-nothing on the given conflict target columns, or a column set
// to overwrite on conflict.
type OnConflictClause struct {
	Columns    []string
	DoNothing  bool
	UpdateSet  map[string]Node
}

func (i *InsertStmt) Type() NodeType         { return NodeInsert }
func (i *InsertStmt) Accept(v Visitor) error { return v.VisitInsert(i) }
func (i *InsertStmt) Fingerprint() uint64 {
	h := fnv.New64a()
	h.Write([]byte("insert:"))
	if i.Table != nil {
		h.Write(utils.U64ToBytes(i.Table.Fingerprint()))
	}
	for _, c := range i.Columns {
		h.Write([]byte(c + ","))
	}
	h.Write(utils.U64ToBytes(uint64(len(i.Values))))
	return h.Sum64()
}
