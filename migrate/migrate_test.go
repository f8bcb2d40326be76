package migrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arion-db/arion/schema"
)

func buildTestSet(t *testing.T) *schema.Set {
	t.Helper()

	parent := schema.NewScheme("Parent").WithVersion(1)
	parent.AddField(schema.Scalar("name", schema.KindText).WithRequired())

	child := schema.NewScheme("Child").WithVersion(1).WithDelta()
	child.AddField(schema.Scalar("title", schema.KindText))
	child.AddField(schema.Object("parent", "Parent", schema.OnRemoveCascade))
	child.AddField(schema.SetField("tags", "Tag", schema.OnRemoveReference))
	child.AddField(schema.View("recent", "Tag", nil).WithViewDelta())

	tag := schema.NewScheme("Tag").WithVersion(1)
	tag.AddField(schema.Scalar("label", schema.KindText))

	set := schema.NewSet()
	require.NoError(t, set.Add(parent))
	require.NoError(t, set.Add(child))
	require.NoError(t, set.Add(tag))
	require.NoError(t, set.Finalize())

	return set
}

// TestDesiredTablesCoversEveryPhysicalTable checks that the table
// inventory (base table per scheme, join table per Set field,
// delta table per delta-enabled scheme) is fully produced.
func TestDesiredTablesCoversEveryPhysicalTable(t *testing.T) {
	set := buildTestSet(t)
	tables := desiredTables(set, "postgres")

	names := make(map[string]*desiredTable, len(tables))
	for _, dt := range tables {
		names[dt.Name] = dt
	}

	assert.Contains(t, names, "parents")
	assert.Contains(t, names, "children")
	assert.Contains(t, names, "tags")
	assert.Contains(t, names, "Child_f_tags")
	assert.Contains(t, names, "Child_delta")
	assert.Contains(t, names, "Child_f_recent_view")
	assert.Contains(t, names, "Child_f_recent_delta")

	child := names["children"]
	require.NotNil(t, child)
	assert.Contains(t, child.Columns, "parent")
	assert.Contains(t, child.Indexes, "idx_children_parent")
}

func TestDesiredTablesSQLiteColumnTypes(t *testing.T) {
	set := buildTestSet(t)
	tables := desiredTables(set, "sqlite")

	var parent *desiredTable
	for _, dt := range tables {
		if dt.Name == "parents" {
			parent = dt
		}
	}
	require.NotNil(t, parent)
	assert.Equal(t, "INTEGER", parent.Columns[oidColumn("sqlite")])
	assert.True(t, parent.NotNull["name"])
}

func TestTriggerNameRoundTrips(t *testing.T) {
	name := triggerName("parent", "before_delete", "Child", "Parent", "cascade")
	bind, event, source, target, policy, ok := ParseTriggerName(name)
	require.True(t, ok)
	assert.Equal(t, "parent", bind)
	assert.Equal(t, "before_delete", event)
	assert.Equal(t, "Child", source)
	assert.Equal(t, "Parent", target)
	assert.Equal(t, "cascade", policy)
}

func TestParseTriggerNameRejectsForeignTriggers(t *testing.T) {
	_, _, _, _, _, ok := ParseTriggerName("some_hand_written_trigger")
	assert.False(t, ok)
}

// TestGenerateTriggersResolvesTargetTable exercises the Object on-remove
// trigger's attachment point: it must live on the *target* scheme's table
// (parents), not the source scheme's (children), since the delete that fires
// it happens on the target row.
func TestGenerateTriggersResolvesTargetTable(t *testing.T) {
	set := buildTestSet(t)
	child := set.Get("Child")

	triggers := generateTriggers(set, child, "postgres")

	var found *TriggerSpec
	for i := range triggers {
		if triggers[i].Table == "parents" {
			found = &triggers[i]
		}
	}
	require.NotNil(t, found)
	assert.Contains(t, found.Create, "DELETE FROM children")
}

// TestMigrationIsIdempotent checks that running the same
// desiredTables computation twice against an unchanged schema.Set yields
// the same tables with the same columns and the same number of triggers,
// so re-running a migration against an already up-to-date database is a
// no-op modulo ordering.
func TestMigrationIsIdempotent(t *testing.T) {
	set := buildTestSet(t)

	first := desiredTables(set, "postgres")
	second := desiredTables(set, "postgres")

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Columns, second[i].Columns)
		assert.Equal(t, len(first[i].Triggers), len(second[i].Triggers))
	}
}

// TestViewTableShape checks the view materialization and its delta shadow:
// the view table keys source and target rows, and the delta shadow records
// (tag, object, time, user) with no action column.
func TestViewTableShape(t *testing.T) {
	set := buildTestSet(t)
	child := set.Get("Child")
	recent := child.FieldMap["recent"]
	require.NotNil(t, recent)

	vt := viewTable(child, recent, "postgres")
	assert.Equal(t, "Child_f_recent_view", vt.Name)
	assert.Contains(t, vt.Columns, "__vid")
	assert.Contains(t, vt.Columns, "source_id")
	assert.Contains(t, vt.Columns, "target_id")
	require.NotEmpty(t, vt.Triggers, "a delta-enabled view must carry its delta triggers")
	for _, trg := range vt.Triggers {
		assert.Equal(t, "Child_f_recent_view", trg.Table)
		assert.Contains(t, trg.Create, "INSERT INTO Child_f_recent_delta")
		assert.Contains(t, trg.Create, "(tag, object, time, user)")
	}

	dt := viewDeltaTable(child, recent, "postgres")
	assert.Equal(t, "Child_f_recent_delta", dt.Name)
	assert.Contains(t, dt.Columns, "tag")
	assert.Contains(t, dt.Columns, "object")
	assert.Contains(t, dt.Columns, "time")
	assert.Contains(t, dt.Columns, "user")
	assert.NotContains(t, dt.Columns, "action", "view deltas carry no action column")
}

// TestViewDeltaTriggerReferences checks insert stamps the NEW row while
// update and delete stamp the OLD one.
func TestViewDeltaTriggerReferences(t *testing.T) {
	set := buildTestSet(t)
	child := set.Get("Child")
	recent := child.FieldMap["recent"]

	triggers := viewDeltaTriggers(child, recent, "sqlite")
	require.Len(t, triggers, 3)

	byEvent := map[string]string{}
	for _, trg := range triggers {
		switch {
		case strings.Contains(trg.Create, "AFTER INSERT"):
			byEvent["insert"] = trg.Create
		case strings.Contains(trg.Create, "AFTER UPDATE"):
			byEvent["update"] = trg.Create
		case strings.Contains(trg.Create, "AFTER DELETE"):
			byEvent["delete"] = trg.Create
		}
	}
	assert.Contains(t, byEvent["insert"], "NEW.source_id")
	assert.Contains(t, byEvent["update"], "OLD.source_id")
	assert.Contains(t, byEvent["delete"], "OLD.source_id")
}
