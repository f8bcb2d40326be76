package ast

import "github.com/arion-db/arion/utils"

// WhereCondition is one link in a WhereClause's condition chain. Operator
// names the logical connective joining this condition to the previous one
// in the chain ("AND"/"OR"); it is ignored on the chain's first link.
type WhereCondition struct {
	Condition Node
	Operator  string
	Next      *WhereCondition
}

// WhereClause is a singly-linked chain of conditions, letting the query
// builder append terms one at a time without rebuilding a tree on every
// Where call.
type WhereClause struct {
	First *WhereCondition
	Tail  *WhereCondition
}

func newWhereCondition(condition Node, operator string) *WhereCondition {
	wc := whereConditionPool.Get().(*WhereCondition)
	wc.Condition = condition
	wc.Operator = operator
	wc.Next = nil
	return wc
}

// NewWhereClause starts a clause with a single condition and no connective.
func NewWhereClause(condition Node) *WhereClause {
	w := whereClausePool.Get().(*WhereClause)
	w.First = nil
	w.Tail = nil
	w.Add(condition, "")
	return w
}

// Add appends condition to the chain, joined to the previous link by
// operator ("AND"/"OR"). operator is ignored when this is the first link.
func (w *WhereClause) Add(condition Node, operator string) *WhereCondition {
	n := newWhereCondition(condition, operator)
	if w.First == nil {
		w.First = n
		w.Tail = n
		return n
	}
	w.Tail.Next = n
	w.Tail = n
	return n
}

func (w *WhereClause) Type() NodeType         { return NodeWhere }
func (w *WhereClause) Accept(v Visitor) error { return v.VisitWhereClause(w) }
func (w *WhereClause) Fingerprint() uint64 {
	if w.First == nil {
		return 0
	}

	hash := uint64(0)
	cond := w.First
	for cond != nil {
		if cond.Condition != nil {
			hash ^= cond.Condition.Fingerprint()
		}
		hash ^= utils.U64(cond.Operator)
		cond = cond.Next
	}
	return hash
}

func (wc *WhereCondition) Release() {
	if wc.Condition != nil {
		if releasable, ok := wc.Condition.(interface{ Release() }); ok {
			releasable.Release()
		}
	}
	if wc.Next != nil {
		wc.Next.Release()
	}
	wc.Condition = nil
	wc.Operator = ""
	wc.Next = nil
	whereConditionPool.Put(wc)
}

func (w *WhereClause) Release() {
	if w.First != nil {
		w.First.Release()
	}
	w.First = nil
	w.Tail = nil
	whereClausePool.Put(w)
}
