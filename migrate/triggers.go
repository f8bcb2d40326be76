package migrate

import (
	"fmt"
	"strings"

	"github.com/arion-db/arion/schema"
)

// TriggerSpec is one synthesized trigger: its encoded name plus the DDL to
// create it. Trigger names encode the (bind, event, source, target,
// policy) tuple, so that re-parsing an existing trigger reconstructs
// its intent — ParseTriggerName below is that re-parse.
type TriggerSpec struct {
	Name   string
	Table  string // table the trigger is attached to
	Create string // full CREATE TRIGGER statement
	Drop   string // full DROP TRIGGER statement
}

// triggerName renders the (bind, event, source, target, policy) tuple into
// a single identifier, `_`-joined since neither backend's identifier rules
// allow the tuple's natural punctuation.
func triggerName(bind, event, source, target, policy string) string {
	if target == "" {
		target = "none"
	}
	return fmt.Sprintf("sp_trg_%s_%s_%s_%s_%s", bind, event, source, target, policy)
}

// ParseTriggerName reverses triggerName, recovering the tuple a trigger's
// name was built from. Returns ok=false if name isn't in the sp_trg_
// namespace this engine owns (a hand-written trigger, say), so the diff
// engine leaves foreign triggers alone. Parsing runs from the rear since
// the bind (a field name) may itself contain underscores; events are
// always two tokens (before_delete, after_insert, ...).
func ParseTriggerName(name string) (bind, event, source, target, policy string, ok bool) {
	if !strings.HasPrefix(name, "sp_trg_") {
		return "", "", "", "", "", false
	}
	parts := strings.Split(strings.TrimPrefix(name, "sp_trg_"), "_")
	if len(parts) < 6 {
		return "", "", "", "", "", false
	}
	n := len(parts)
	policy = parts[n-1]
	target = parts[n-2]
	source = parts[n-3]
	event = parts[n-5] + "_" + parts[n-4]
	bind = strings.Join(parts[:n-5], "_")
	if bind == "" {
		return "", "", "", "", "", false
	}
	return bind, event, source, target, policy, true
}

// generateTriggers synthesizes the BEFORE-DELETE/AFTER-INSERT/UPDATE/
// DELETE triggers required for s's base table: one per Object/Set field
// enforcing its on-remove policy, plus delta-recording triggers for
// delta-enabled schemes. set resolves each field's Target scheme name to
// its actual table name. View-delta triggers live on the view table, not
// here — viewTable attaches them via viewDeltaTriggers.
func generateTriggers(set *schema.Set, s *schema.Scheme, dialectName string) []TriggerSpec {
	var specs []TriggerSpec

	for _, f := range s.Fields {
		switch f.Kind {
		case schema.KindObject:
			specs = append(specs, onRemoveTrigger(set, s, f, dialectName)...)
		case schema.KindSet:
			specs = append(specs, setRemoveTrigger(set, s, f, dialectName)...)
		}
	}

	if s.HasDelta {
		specs = append(specs, deltaTriggers(s, dialectName)...)
	}

	return specs
}

func targetTableName(set *schema.Set, target string) string {
	if t := set.Get(target); t != nil {
		return t.TableName()
	}
	return target
}

// onRemoveTrigger enforces f's on-remove policy on the *target* scheme's
// delete path: deleting a target row must cascade/restrict/null the
// referencing rows in s, so the trigger is attached to the target table
// even though the field lives on s.
func onRemoveTrigger(set *schema.Set, s *schema.Scheme, f *schema.Field, dialectName string) []TriggerSpec {
	targetTable := targetTableName(set, f.Target)
	name := triggerName(f.Name, "before_delete", s.Name, f.Target, f.OnRemove.String())

	var body string
	switch f.OnRemove {
	case schema.OnRemoveCascade:
		body = fmt.Sprintf("DELETE FROM %s WHERE %s = OLD.%s;", s.TableName(), s.ColumnName(f.Name), oidColumn(dialectName))
	case schema.OnRemoveRestrict:
		body = fmt.Sprintf("SELECT RAISE(ABORT, 'restrict: %s.%s') WHERE EXISTS (SELECT 1 FROM %s WHERE %s = OLD.%s);",
			s.Name, f.Name, s.TableName(), s.ColumnName(f.Name), oidColumn(dialectName))
		if dialectName != "sqlite" {
			body = fmt.Sprintf("IF EXISTS (SELECT 1 FROM %s WHERE %s = OLD.%s) THEN RAISE EXCEPTION 'restrict: %s.%s'; END IF;",
				s.TableName(), s.ColumnName(f.Name), oidColumn(dialectName), s.Name, f.Name)
		}
	case schema.OnRemoveStrongReference:
		body = fmt.Sprintf("DELETE FROM %s WHERE %s = OLD.%s;", s.TableName(), s.ColumnName(f.Name), oidColumn(dialectName))
	default: // OnRemoveNull, OnRemoveReference (Reference only applies to Set)
		body = fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = OLD.%s;", s.TableName(), s.ColumnName(f.Name), s.ColumnName(f.Name), oidColumn(dialectName))
	}

	return []TriggerSpec{{
		Name:  name,
		Table: targetTable,
		Create: renderTrigger(dialectName, name, "BEFORE", "DELETE", targetTable, body),
		Drop:   dropTrigger(dialectName, name, targetTable),
	}}
}

// setRemoveTrigger enforces a Set field's on-remove policy by attaching a
// BEFORE-DELETE trigger to the target table that cleans up (or blocks
// removal of) the join-table row, per the field's on-remove policy.
func setRemoveTrigger(set *schema.Set, s *schema.Scheme, f *schema.Field, dialectName string) []TriggerSpec {
	joinTable := s.JoinTableName(f.Name)
	targetTable := targetTableName(set, f.Target)
	name := triggerName(f.Name, "before_delete", s.Name, f.Target, f.OnRemove.String())

	var body string
	switch f.OnRemove {
	case schema.OnRemoveRestrict:
		if dialectName == "sqlite" {
			body = fmt.Sprintf("SELECT RAISE(ABORT, 'restrict: %s.%s') WHERE EXISTS (SELECT 1 FROM %s WHERE target_id = OLD.%s);", s.Name, f.Name, joinTable, oidColumn(dialectName))
		} else {
			body = fmt.Sprintf("IF EXISTS (SELECT 1 FROM %s WHERE target_id = OLD.%s) THEN RAISE EXCEPTION 'restrict: %s.%s'; END IF;", joinTable, oidColumn(dialectName), s.Name, f.Name)
		}
	default: // Cascade, Null, Reference, StrongReference all remove the join row; the
		// difference between them is whether the *source* row also goes, which
		// the source-side AFTER-DELETE trigger below handles for StrongReference.
		body = fmt.Sprintf("DELETE FROM %s WHERE target_id = OLD.%s;", joinTable, oidColumn(dialectName))
	}

	specs := []TriggerSpec{{
		Name:  name,
		Table: targetTable,
		Create: renderTrigger(dialectName, name, "BEFORE", "DELETE", targetTable, body),
		Drop:   dropTrigger(dialectName, name, targetTable),
	}}

	if f.OnRemove == schema.OnRemoveStrongReference {
		srcName := triggerName(f.Name, "after_delete", s.Name, f.Target, f.OnRemove.String())
		srcBody := fmt.Sprintf("DELETE FROM %s WHERE %s IN (SELECT target_id FROM %s WHERE source_id = OLD.%s);",
			targetTable, oidColumn(dialectName), joinTable, oidColumn(dialectName))
		specs = append(specs, TriggerSpec{
			Name:  srcName,
			Table: s.TableName(),
			Create: renderTrigger(dialectName, srcName, "AFTER", "DELETE", s.TableName(), srcBody),
			Drop:   dropTrigger(dialectName, srcName, s.TableName()),
		})
	}

	return specs
}

// deltaTriggers synthesizes the AFTER-INSERT/UPDATE/DELETE triggers that
// record create/update/delete mutations into s's delta shadow table, so
// delta rows commit atomically with the causing mutation.
func deltaTriggers(s *schema.Scheme, dialectName string) []TriggerSpec {
	table := s.TableName()
	deltaTable := s.DeltaTableName()
	now := nowExpr(dialectName)
	user := userExpr(dialectName)

	events := []struct {
		event  string
		action int
		ref    string
	}{
		{"INSERT", 1, "NEW"},
		{"UPDATE", 2, "NEW"},
		{"DELETE", 3, "OLD"},
	}

	var specs []TriggerSpec
	for _, e := range events {
		name := triggerName("delta", "after_"+strings.ToLower(e.event), s.Name, "", "delta")
		body := fmt.Sprintf("INSERT INTO %s (object, action, time, user) VALUES (%s.%s, %d, %s, %s);",
			deltaTable, e.ref, oidColumn(dialectName), e.action, now, user)
		specs = append(specs, TriggerSpec{
			Name:  name,
			Table: table,
			Create: renderTrigger(dialectName, name, "AFTER", e.event, table, body),
			Drop:   dropTrigger(dialectName, name, table),
		})
	}
	return specs
}

// viewDeltaTriggers records every view-table mutation into the view's
// delta shadow as a (tag, object, time, user) row — no action column;
// inserts stamp the NEW row, updates and deletes stamp the OLD one, so an
// update reads as "the old projection left the view at this time".
func viewDeltaTriggers(s *schema.Scheme, f *schema.Field, dialectName string) []TriggerSpec {
	table := s.ViewTableName(f.Name)
	deltaTable := s.ViewDeltaTableName(f.Name)
	now := nowExpr(dialectName)
	user := userExpr(dialectName)

	events := []struct {
		event string
		ref   string
	}{
		{"INSERT", "NEW"},
		{"UPDATE", "OLD"},
		{"DELETE", "OLD"},
	}

	var specs []TriggerSpec
	for _, e := range events {
		name := triggerName(f.Name, "after_"+strings.ToLower(e.event), s.Name, f.Target, "viewdelta")
		body := fmt.Sprintf("INSERT INTO %s (tag, object, time, user) VALUES (%s.source_id, %s.target_id, %s, %s);",
			deltaTable, e.ref, e.ref, now, user)
		specs = append(specs, TriggerSpec{
			Name:   name,
			Table:  table,
			Create: renderTrigger(dialectName, name, "AFTER", e.event, table, body),
			Drop:   dropTrigger(dialectName, name, table),
		})
	}
	return specs
}

func oidColumn(dialectName string) string { return "__oid" }

func nowExpr(dialectName string) string {
	if dialectName == "sqlite" {
		return "sp_sqlite_now()"
	}
	return "(extract(epoch from now()) * 1000000)::bigint"
}

func userExpr(dialectName string) string {
	if dialectName == "sqlite" {
		return "sp_sqlite_user()"
	}
	return "current_setting('serenity.user', true)::bigint"
}

func renderTrigger(dialectName, name, timing, event, table, body string) string {
	if dialectName == "sqlite" {
		return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s\nBEGIN\n  %s\nEND;", name, timing, event, table, body)
	}
	fnName := name + "_fn"
	return fmt.Sprintf(
		"CREATE OR REPLACE FUNCTION %s() RETURNS TRIGGER AS $$\nBEGIN\n  %s\n  RETURN %s;\nEND;\n$$ LANGUAGE plpgsql;\n"+
			"CREATE TRIGGER %s %s %s ON %s FOR EACH ROW EXECUTE FUNCTION %s();",
		fnName, body, triggerReturnVar(timing, event), name, timing, event, table, fnName)
}

func triggerReturnVar(timing, event string) string {
	if event == "DELETE" {
		return "OLD"
	}
	if timing == "BEFORE" {
		return "NEW"
	}
	return "NEW"
}

func dropTrigger(dialectName, name, table string) string {
	if dialectName == "sqlite" {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", name)
	}
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s; DROP FUNCTION IF EXISTS %s_fn();", name, table, name)
}
