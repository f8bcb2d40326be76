// Package migrate is the schema-diff and DDL-emission engine: given a
// backend.Adapter and a declared schema.Set, it brings the
// live catalog up to date with the declared schema and writes an audit
// report of every statement it ran.
package migrate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/arion-db/arion/arionerr"
	"github.com/arion-db/arion/backend"
	"github.com/arion-db/arion/dialect"
	"github.com/arion-db/arion/internal/obs"
	"github.com/arion-db/arion/pool"
	"github.com/arion-db/arion/schema"
)

// Engine ties housekeeping, catalog introspection, diffing, and DDL
// execution together into one startup sequence.
type Engine struct {
	Adapter      backend.Adapter
	DialectName  string
	DocumentRoot string // report files are written under <DocumentRoot>/.reports

	// mem is the root pool report pools are created under; one engine's
	// reports share one allocator so recycled blocks serve later runs.
	mem *pool.Pool
}

// New returns an Engine for the given adapter, naming its dialect from
// the concrete dialect.Dialect a.Dialect() returns.
func New(a backend.Adapter, documentRoot string) *Engine {
	return &Engine{
		Adapter:      a,
		DialectName:  dialectName(a.Dialect()),
		DocumentRoot: documentRoot,
		mem:          pool.New(pool.NewAllocManager(0)),
	}
}

// Close destroys the engine's report allocator, releasing every Report
// not yet Released.
func (e *Engine) Close() error { return e.mem.Destroy() }

func dialectName(d dialect.Dialect) string {
	switch d.(type) {
	case *dialect.SQLite:
		return "sqlite"
	case *dialect.MySQL:
		return "mysql"
	case *dialect.TiDB:
		return "tidb"
	default:
		return "postgres"
	}
}

// Run executes the full migration sequence against set and returns the
// audit Report of every statement it ran:
//  1. ensure housekeeping tables exist
//  2. read existing tables from the catalog
//  3. compute the required tables from set
//  4. diff and emit DDL for every table whose recorded version is behind
//  5. type changes are handled as drop-and-readd
//  6. update __versions(name, version) per table
//
// A failure in a table's DDL or in the commit rolls back the transaction
// holding the table changes; the partial report is still written and
// returned so the caller can see how far it got. The housekeeping DDL and
// the catalog read run before that transaction: a failure there returns
// the report without rolling anything back or writing it.
func (e *Engine) Run(ctx context.Context, set *schema.Set) (*Report, error) {
	report := newReport(e.mem)

	for _, stmt := range housekeepingDDL(e.DialectName) {
		if _, err := e.Adapter.Exec(ctx, stmt); err != nil {
			return report, arionerr.New(arionerr.KindBackend, "migrate.housekeeping", err)
		}
		report.add(stmt)
	}

	catalog, err := catalogFor(e.DialectName).Tables(ctx, e.Adapter)
	if err != nil {
		return report, arionerr.New(arionerr.KindBackend, "migrate.introspect", err)
	}

	desired := desiredTables(set, e.DialectName)

	tx, err := e.Adapter.BeginTx(ctx, backend.Serialized)
	if err != nil {
		return report, arionerr.New(arionerr.KindBackend, "migrate.begin", err)
	}

	for _, dt := range desired {
		existing := catalog[dt.Name]
		if existing != nil && existing.Version >= dt.Version {
			continue
		}
		if err := e.migrateTable(ctx, tx, dt, existing, report); err != nil {
			_ = tx.Rollback(ctx)
			report.failed = true
			report.err = err
			e.writeReport(report)
			return report, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		report.failed = true
		report.err = err
		e.writeReport(report)
		return report, arionerr.New(arionerr.KindBackend, "migrate.commit", err)
	}

	e.writeReport(report)
	obs.Op().Info("migration complete", "tables", len(desired), "statements", len(report.statements))
	return report, nil
}

// desiredTable is the declared shape of one table: its columns, the
// field(s) requiring an index, and which scheme/field(s) it belongs to
// (used to retarget trigger generation at diff time).
type desiredTable struct {
	Name     string
	Version  int
	Columns  map[string]string // column name -> SQL type
	NotNull  map[string]bool
	Indexes  map[string]string // index name -> column list SQL
	Triggers []TriggerSpec
	Scheme   *schema.Scheme // nil for join/view/delta/fts tables, set for the owning base table
}

// desiredTables computes every table the scheme set requires: a base
// table per scheme, a join table per Set field, a value table per Array
// field, a view table (plus its delta shadow, when enabled) per View
// field, a delta table per delta-enabled scheme, and a full-text value
// table per FullTextView field.
func desiredTables(set *schema.Set, dialectName string) []*desiredTable {
	var out []*desiredTable

	for _, s := range set.All() {
		base := &desiredTable{
			Name:    s.TableName(),
			Version: s.Version,
			Columns: map[string]string{oidColumn(dialectName): pkType(dialectName)},
			NotNull: map[string]bool{oidColumn(dialectName): true},
			Indexes: map[string]string{},
		}
		base.Scheme = s

		for _, f := range s.Fields {
			switch f.Kind {
			case schema.KindInteger, schema.KindFloat, schema.KindBoolean, schema.KindText,
				schema.KindBytes, schema.KindData, schema.KindExtra, schema.KindFile, schema.KindImage,
				schema.KindCustom:
				base.Columns[s.ColumnName(f.Name)] = sqlColumnType(dialectName, f)
				base.NotNull[s.ColumnName(f.Name)] = f.Required
			case schema.KindObject:
				base.Columns[s.ColumnName(f.Name)] = pkType(dialectName)
				base.NotNull[s.ColumnName(f.Name)] = f.Required
				base.Indexes["idx_"+s.TableName()+"_"+f.Name] = s.ColumnName(f.Name)
			case schema.KindView, schema.KindVirtual:
				// computed at query time; no physical column.
			}
		}

		for gi, group := range s.Unique {
			cols := make([]string, len(group))
			for i, fn := range group {
				cols[i] = s.ColumnName(fn)
			}
			base.Indexes[fmt.Sprintf("uniq_%s_%d", s.TableName(), gi)] = strings.Join(cols, ", ")
		}

		base.Triggers = generateTriggers(set, s, dialectName)
		out = append(out, base)

		for _, f := range s.Fields {
			switch f.Kind {
			case schema.KindSet:
				out = append(out, joinTable(s, f, dialectName))
			case schema.KindArray:
				out = append(out, arrayTable(s, f, dialectName))
			case schema.KindFullTextView:
				out = append(out, ftsTable(s, f, dialectName))
			case schema.KindView:
				out = append(out, viewTable(s, f, dialectName))
				if f.ViewDelta {
					out = append(out, viewDeltaTable(s, f, dialectName))
				}
			}
		}

		if s.HasDelta {
			out = append(out, deltaTable(s, dialectName))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func joinTable(s *schema.Scheme, f *schema.Field, dialectName string) *desiredTable {
	name := s.JoinTableName(f.Name)
	return &desiredTable{
		Name:    name,
		Version: s.Version,
		Columns: map[string]string{"source_id": pkType(dialectName), "target_id": pkType(dialectName)},
		NotNull: map[string]bool{"source_id": true, "target_id": true},
		Indexes: map[string]string{
			"idx_" + name + "_source": "source_id",
			"idx_" + name + "_target": "target_id",
		},
	}
}

func arrayTable(s *schema.Scheme, f *schema.Field, dialectName string) *desiredTable {
	name := s.JoinTableName(f.Name)
	return &desiredTable{
		Name:    name,
		Version: s.Version,
		Columns: map[string]string{
			"id":        autoPKType(dialectName),
			"source_id": pkType(dialectName),
			"value":     sqlColumnType(dialectName, f),
			"position":  intType(dialectName),
		},
		NotNull: map[string]bool{"source_id": true, "position": true},
		Indexes: map[string]string{"idx_" + name + "_source": "source_id"},
	}
}

// viewTable is a View field's materialization: one row per projected
// target object, keyed back to the source row.
func viewTable(s *schema.Scheme, f *schema.Field, dialectName string) *desiredTable {
	name := s.ViewTableName(f.Name)
	dt := &desiredTable{
		Name:    name,
		Version: s.Version,
		Columns: map[string]string{
			"__vid":     autoPKType(dialectName),
			"source_id": pkType(dialectName),
			"target_id": pkType(dialectName),
		},
		NotNull: map[string]bool{"source_id": true, "target_id": true},
		Indexes: map[string]string{
			"idx_" + name + "_source": "source_id",
			"idx_" + name + "_target": "target_id",
		},
	}
	if f.ViewDelta {
		dt.Triggers = viewDeltaTriggers(s, f, dialectName)
	}
	return dt
}

// viewDeltaTable is the shadow change log of a View field. Unlike a
// scheme's own delta table it has no action column; the parent tag plus
// (object, time, user) is the whole record.
func viewDeltaTable(s *schema.Scheme, f *schema.Field, dialectName string) *desiredTable {
	name := s.ViewDeltaTableName(f.Name)
	return &desiredTable{
		Name:    name,
		Version: s.Version,
		Columns: map[string]string{
			"id":     autoPKType(dialectName),
			"tag":    pkType(dialectName),
			"object": pkType(dialectName),
			"time":   intType(dialectName),
			"user":   pkType(dialectName),
		},
		NotNull: map[string]bool{"tag": true, "object": true, "time": true},
		Indexes: map[string]string{
			"idx_" + name + "_tag":    "tag",
			"idx_" + name + "_object": "object",
			"idx_" + name + "_time":   "time",
		},
	}
}

func ftsTable(s *schema.Scheme, f *schema.Field, dialectName string) *desiredTable {
	name := s.FullTextTableName(f.Name)
	return &desiredTable{
		Name:    name,
		Version: s.Version,
		Columns: map[string]string{"object": pkType(dialectName), "word": sqlColumnType(dialectName, f), "rank": "double precision"},
		NotNull: map[string]bool{"object": true, "word": true},
		Indexes: map[string]string{"idx_" + name + "_word": "word"},
	}
}

func deltaTable(s *schema.Scheme, dialectName string) *desiredTable {
	name := s.DeltaTableName()
	return &desiredTable{
		Name:    name,
		Version: s.Version,
		Columns: map[string]string{
			"id":     autoPKType(dialectName),
			"object": pkType(dialectName),
			"action": intType(dialectName),
			"time":   intType(dialectName),
			"user":   pkType(dialectName),
		},
		NotNull: map[string]bool{"object": true, "action": true, "time": true},
		Indexes: map[string]string{"idx_" + name + "_object": "object", "idx_" + name + "_time": "time"},
	}
}

func pkType(dialectName string) string {
	if dialectName == "sqlite" {
		return "INTEGER"
	}
	return "BIGINT"
}

func intType(dialectName string) string { return pkType(dialectName) }

// autoPKType renders a self-assigning integer primary key column. Columns
// declared with it are create-only: the diff pass never drops or retypes
// them (the catalog reports the storage class, not the serial/autoinc
// sugar, so a literal compare would churn on every run).
func autoPKType(dialectName string) string {
	if dialectName == "sqlite" {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGSERIAL PRIMARY KEY"
}

// sqlColumnType maps a field's schema.Kind onto the column type DDL for
// dialectName, mirroring the same classification
// backend/postgres.classifyPgType inverts at read time.
func sqlColumnType(dialectName string, f *schema.Field) string {
	sqlite := dialectName == "sqlite"
	switch f.Kind {
	case schema.KindInteger:
		if sqlite {
			return "INTEGER"
		}
		return "BIGINT"
	case schema.KindFloat:
		if sqlite {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	case schema.KindBoolean:
		if sqlite {
			return "INTEGER"
		}
		return "BOOLEAN"
	case schema.KindBytes, schema.KindFile, schema.KindImage, schema.KindData, schema.KindCustom:
		if sqlite {
			return "BLOB"
		}
		return "BYTEA"
	default: // Text, Extra (JSON-encoded text)
		return "TEXT"
	}
}

// migrateTable diffs dt against existing (nil on first creation) and
// executes the resulting DDL inside tx, recording every statement into
// report.
func (e *Engine) migrateTable(ctx context.Context, tx backend.Tx, dt *desiredTable, existing *TableInfo, report *Report) error {
	if existing == nil {
		return e.createTable(ctx, tx, dt, report)
	}

	for col, typ := range dt.Columns {
		cur, ok := existing.Columns[col]
		if !ok {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s", dt.Name, col, typ, notNullSuffix(dt.NotNull[col]))
			if err := e.exec(ctx, tx, stmt, report); err != nil {
				return err
			}
			continue
		}
		// primary-key columns are create-only; see autoPKType
		if strings.Contains(typ, "PRIMARY KEY") {
			continue
		}
		// type changes are handled as drop-and-readd,
		// since neither backend's ALTER COLUMN TYPE is safe across every
		// storage-class pair this engine supports.
		if !strings.EqualFold(cur.Type, typ) {
			if err := e.exec(ctx, tx, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", dt.Name, col), report); err != nil {
				return err
			}
			if err := e.exec(ctx, tx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s", dt.Name, col, typ, notNullSuffix(dt.NotNull[col])), report); err != nil {
				return err
			}
			continue
		}
		if dt.NotNull[col] && !cur.NotNull && e.DialectName != "sqlite" {
			if err := e.exec(ctx, tx, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", dt.Name, col), report); err != nil {
				return err
			}
		} else if !dt.NotNull[col] && cur.NotNull && e.DialectName != "sqlite" {
			if err := e.exec(ctx, tx, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", dt.Name, col), report); err != nil {
				return err
			}
		}
	}

	for col := range existing.Columns {
		if _, ok := dt.Columns[col]; !ok {
			if err := e.exec(ctx, tx, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", dt.Name, col), report); err != nil {
				return err
			}
		}
	}

	for name, cols := range dt.Indexes {
		if !existing.Indexes[name] {
			unique := strings.HasPrefix(name, "uniq_")
			if err := e.exec(ctx, tx, createIndexStmt(name, dt.Name, cols, unique), report); err != nil {
				return err
			}
		}
	}
	for name := range existing.Indexes {
		if !strings.HasPrefix(name, "idx_") && !strings.HasPrefix(name, "uniq_") {
			continue // not one of ours; leave hand-written indexes alone
		}
		if _, ok := dt.Indexes[name]; !ok {
			if err := e.exec(ctx, tx, "DROP INDEX "+name, report); err != nil {
				return err
			}
		}
	}

	if err := e.diffTriggers(ctx, tx, dt, existing, report); err != nil {
		return err
	}

	return e.bumpVersion(ctx, tx, dt.Name, dt.Version, report)
}

func (e *Engine) createTable(ctx context.Context, tx backend.Tx, dt *desiredTable, report *Report) error {
	names := make([]string, 0, len(dt.Columns))
	for col := range dt.Columns {
		names = append(names, col)
	}
	sort.Strings(names)

	defs := make([]string, 0, len(names))
	for _, col := range names {
		defs = append(defs, fmt.Sprintf("%s %s%s", col, dt.Columns[col], notNullSuffix(dt.NotNull[col])))
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", dt.Name, strings.Join(defs, ", "))
	if err := e.exec(ctx, tx, stmt, report); err != nil {
		return err
	}

	idxNames := make([]string, 0, len(dt.Indexes))
	for name := range dt.Indexes {
		idxNames = append(idxNames, name)
	}
	sort.Strings(idxNames)
	for _, name := range idxNames {
		unique := strings.HasPrefix(name, "uniq_")
		if err := e.exec(ctx, tx, createIndexStmt(name, dt.Name, dt.Indexes[name], unique), report); err != nil {
			return err
		}
	}

	for _, trg := range dt.Triggers {
		for _, stmt := range splitStatements(trg.Create) {
			if err := e.exec(ctx, tx, stmt, report); err != nil {
				return err
			}
		}
	}

	return e.bumpVersion(ctx, tx, dt.Name, dt.Version, report)
}

// diffTriggers drops any sp_trg_-namespaced trigger this engine owns but
// no longer wants, then (re)creates every desired trigger missing from
// the catalog. Re-creating only the missing ones keeps an unchanged
// trigger's function body from being rewritten on every run.
func (e *Engine) diffTriggers(ctx context.Context, tx backend.Tx, dt *desiredTable, existing *TableInfo, report *Report) error {
	want := make(map[string]TriggerSpec, len(dt.Triggers))
	for _, t := range dt.Triggers {
		want[t.Name] = t
	}

	for name := range existing.Triggers {
		if _, _, _, _, _, owned := ParseTriggerName(name); !owned {
			continue
		}
		if _, ok := want[name]; !ok {
			if err := e.exec(ctx, tx, "DROP TRIGGER IF EXISTS "+name, report); err != nil {
				return err
			}
		}
	}

	for name, t := range want {
		if existing.Triggers[name] {
			continue
		}
		for _, stmt := range splitStatements(t.Create) {
			if err := e.exec(ctx, tx, stmt, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) bumpVersion(ctx context.Context, tx backend.Tx, table string, version int, report *Report) error {
	var stmt string
	if e.DialectName == "sqlite" {
		stmt = fmt.Sprintf("INSERT INTO __versions (name, version) VALUES ('%s', %d) ON CONFLICT(name) DO UPDATE SET version = %d", table, version, version)
	} else {
		stmt = fmt.Sprintf("INSERT INTO __versions (name, version) VALUES ('%s', %d) ON CONFLICT (name) DO UPDATE SET version = %d", table, version, version)
	}
	return e.exec(ctx, tx, stmt, report)
}

func (e *Engine) exec(ctx context.Context, tx backend.Tx, stmt string, report *Report) error {
	if _, err := tx.Exec(ctx, stmt); err != nil {
		return arionerr.New(arionerr.KindBackend, "migrate.exec", fmt.Errorf("%s: %w", stmt, err))
	}
	report.add(stmt)
	return nil
}

func notNullSuffix(required bool) string {
	if required {
		return " NOT NULL"
	}
	return ""
}

func createIndexStmt(name, table, cols string, unique bool) string {
	if unique {
		return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", name, table, cols)
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)", name, table, cols)
}

// splitStatements breaks a multi-statement trigger block (PostgreSQL's
// function-then-trigger pair) into individually executable statements.
func splitStatements(block string) []string {
	parts := strings.Split(block, "$$ LANGUAGE plpgsql;")
	if len(parts) == 2 {
		return []string{parts[0] + "$$ LANGUAGE plpgsql;", strings.TrimSpace(parts[1])}
	}
	return []string{block}
}
