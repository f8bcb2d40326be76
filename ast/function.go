package ast

import "github.com/arion-db/arion/utils"

// Function is a SQL function call in expression position — aggregate
// boundaries in the soft-limit rewrite, rank expressions in full-text
// ordering.
type Function struct {
	Name string
	Args []Node
}

func (f *Function) Type() NodeType         { return NodeFunction }
func (f *Function) Accept(v Visitor) error { return v.VisitFunction(f) }

func (f *Function) Fingerprint() uint64 {
	hash := utils.U64("func:" + f.Name)
	for _, arg := range f.Args {
		hash = utils.Mix64(hash, arg.Fingerprint())
	}
	return hash
}
