package ast

import (
	"fmt"
	"strconv"
	"time"

	"github.com/arion-db/arion/utils"
)

// ValueType classifies a literal's storage class, set by NewValue from the
// Go value so emitters and caches don't re-inspect the dynamic type.
type ValueType int

const (
	ValueNull ValueType = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueTime
	ValueOther
)

// Value is a bound literal. The visitor renders it as a placeholder and
// appends Val to the argument list; Val never reaches the SQL text.
type Value struct {
	Val       interface{}
	ValueType ValueType
}

func NewValue(val any) *Value {
	v := valuePool.Get().(*Value)
	v.Val = val
	v.ValueType = classifyValue(val)
	return v
}

func classifyValue(val any) ValueType {
	switch val.(type) {
	case nil:
		return ValueNull
	case bool:
		return ValueBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ValueInt
	case float32, float64:
		return ValueFloat
	case string, []byte:
		return ValueString
	case time.Time:
		return ValueTime
	default:
		return ValueOther
	}
}

func (v *Value) Type() NodeType           { return NodeValue }
func (v *Value) Accept(vis Visitor) error { return vis.VisitValue(v) }

func (v *Value) Fingerprint() uint64 {
	return utils.U64("val:" + strconv.Itoa(int(v.ValueType)) + ":" + fmt.Sprint(v.Val))
}

func (v *Value) Release() {
	valuePool.Put(v)
}
