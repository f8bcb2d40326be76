package ast

import "github.com/arion-db/arion/utils"

// Column references a table column, optionally qualified and aliased.
// Table and Alias are empty for the bare single-table case the scheme
// compiler emits most of the time.
type Column struct {
	Table string
	Name  string
	Alias string
}

func NewColumn(table, name, alias string) *Column {
	c := columnPool.Get().(*Column)
	c.Table = table
	c.Name = name
	c.Alias = alias
	return c
}

func (c *Column) Type() NodeType         { return NodeColumn }
func (c *Column) Accept(v Visitor) error { return v.VisitColumn(c) }

// Fingerprint covers the alias too: the same column under two aliases
// renders differently, so the cached SQL must differ as well.
func (c *Column) Fingerprint() uint64 {
	return utils.U64("col:" + c.Table + "." + c.Name + ":" + c.Alias)
}

func (c *Column) Release() {
	columnPool.Put(c)
}
