package ast

import (
	"fmt"

	"github.com/arion-db/arion/utils"
)

// Array is an inline value list, rendered as a parenthesized bind group
// for IN comparisons and array literals.
type Array struct {
	Values []Value
}

func (a *Array) Type() NodeType         { return NodeArray }
func (a *Array) Accept(v Visitor) error { return v.VisitArray(a) }

func (a *Array) Fingerprint() uint64 {
	hash := utils.U64("array:")
	for _, val := range a.Values {
		hash = utils.Mix64(hash, utils.U64(fmt.Sprintf("%d:%v", val.ValueType, val.Val)))
	}
	return hash
}
