package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFieldRejectsDuplicateNames(t *testing.T) {
	s := NewScheme("Item")
	s.AddField(Scalar("name", KindText))

	defer func() {
		r := recover()
		assert.NotNil(t, r)
	}()
	s.AddField(Scalar("name", KindInteger))
}

func TestTableAndColumnNaming(t *testing.T) {
	s := NewScheme("Item")
	assert.Equal(t, "items", s.TableName())
	assert.Equal(t, "qty", s.ColumnName("qty"))
	assert.Equal(t, "Item_f_tags", s.JoinTableName("tags"))
	assert.Equal(t, "Item_delta", s.DeltaTableName())
}

// TestFinalizeComputesReverseLinks exercises a one-way Parent/Child
// relationship: Child.parent is an Object field targeting Parent, and
// Finalize should leave Parent with no reverse link recorded (Parent has
// no Object field of its own pointing back).
func TestFinalizeComputesReverseLinks(t *testing.T) {
	parent := NewScheme("Parent")
	parent.AddField(Scalar("name", KindText))

	child := NewScheme("Child")
	child.AddField(Object("parent", "Parent", OnRemoveCascade))

	set := NewSet()
	require.NoError(t, set.Add(parent))
	require.NoError(t, set.Add(child))
	require.NoError(t, set.Finalize())

	assert.Equal(t, "", child.FieldMap["parent"].ReverseLink)
}

func TestFinalizeFindsMutualObjectReverseLink(t *testing.T) {
	a := NewScheme("A")
	b := NewScheme("B")
	a.AddField(Object("b", "B", OnRemoveNull))
	b.AddField(Object("a", "A", OnRemoveNull))

	set := NewSet()
	require.NoError(t, set.Add(a))
	require.NoError(t, set.Add(b))
	require.NoError(t, set.Finalize())

	assert.Equal(t, "a", a.FieldMap["b"].ReverseLink)
	assert.Equal(t, "b", b.FieldMap["a"].ReverseLink)
}

func TestFinalizeRejectsUnknownTarget(t *testing.T) {
	s := NewScheme("Child")
	s.AddField(Object("parent", "Ghost", OnRemoveNull))

	set := NewSet()
	require.NoError(t, set.Add(s))
	assert.Error(t, set.Finalize())
}

func TestSetRejectsDuplicateSchemeNames(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(NewScheme("Item")))
	assert.Error(t, set.Add(NewScheme("Item")))
}
