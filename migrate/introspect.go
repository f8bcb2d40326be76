package migrate

import (
	"context"

	"github.com/arion-db/arion/backend"
)

// ColumnInfo is one column as read back from the live catalog.
type ColumnInfo struct {
	Name     string
	Type     string
	NotNull  bool
	HasIndex bool
}

// TableInfo is a table's columns, indexes, constraints, and triggers as
// read back from the catalog, plus its recorded __versions entry.
type TableInfo struct {
	Name     string
	Version  int // -1 if no __versions row exists yet
	Columns  map[string]ColumnInfo
	Indexes  map[string]bool
	Triggers map[string]bool
}

// Catalog reads existing schema objects back from a backend —
// information_schema on PostgreSQL, sqlite_schema/PRAGMA on
// SQLite."
type Catalog interface {
	Tables(ctx context.Context, a backend.Adapter) (map[string]*TableInfo, error)
}

// catalogFor returns the Catalog implementation for dialectName.
func catalogFor(dialectName string) Catalog {
	if dialectName == "sqlite" {
		return sqliteCatalog{}
	}
	return postgresCatalog{}
}

type postgresCatalog struct{}

func (postgresCatalog) Tables(ctx context.Context, a backend.Adapter) (map[string]*TableInfo, error) {
	tables := make(map[string]*TableInfo)

	cur, err := a.Query(ctx, `
		SELECT c.table_name, c.column_name, c.data_type, c.is_nullable
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_name = c.table_name AND t.table_schema = c.table_schema
		WHERE c.table_schema = 'public' AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position`)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	for cur.Next(ctx) {
		name, _ := cur.ToString(0)
		col, _ := cur.ToString(1)
		typ, _ := cur.ToString(2)
		nullable, _ := cur.ToString(3)

		t := tables[name]
		if t == nil {
			t = &TableInfo{Name: name, Version: -1, Columns: map[string]ColumnInfo{}, Indexes: map[string]bool{}, Triggers: map[string]bool{}}
			tables[name] = t
		}
		t.Columns[col] = ColumnInfo{Name: col, Type: typ, NotNull: nullable == "NO"}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	if err := loadIndexes(ctx, a, tables, `
		SELECT tablename, indexname FROM pg_indexes WHERE schemaname = 'public'`); err != nil {
		return nil, err
	}
	if err := loadTriggers(ctx, a, tables, `
		SELECT event_object_table, trigger_name FROM information_schema.triggers`); err != nil {
		return nil, err
	}
	if err := loadVersions(ctx, a, tables); err != nil {
		return nil, err
	}

	return tables, nil
}

type sqliteCatalog struct{}

func (sqliteCatalog) Tables(ctx context.Context, a backend.Adapter) (map[string]*TableInfo, error) {
	tables := make(map[string]*TableInfo)

	cur, err := a.Query(ctx, `SELECT name FROM sqlite_schema WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, err
	}
	var names []string
	for cur.Next(ctx) {
		name, _ := cur.ToString(0)
		names = append(names, name)
	}
	cur.Close()
	if err := cur.Err(); err != nil {
		return nil, err
	}

	for _, name := range names {
		t := &TableInfo{Name: name, Version: -1, Columns: map[string]ColumnInfo{}, Indexes: map[string]bool{}, Triggers: map[string]bool{}}
		tables[name] = t

		pcur, err := a.Query(ctx, `PRAGMA table_info(`+quoteIdent(name)+`)`)
		if err != nil {
			return nil, err
		}
		for pcur.Next(ctx) {
			colName, _ := pcur.ToString(1)
			colType, _ := pcur.ToString(2)
			notNull, _ := pcur.ToInteger(3)
			t.Columns[colName] = ColumnInfo{Name: colName, Type: colType, NotNull: notNull != 0}
		}
		pcur.Close()
	}

	if err := loadIndexes(ctx, a, tables, `
		SELECT tbl_name, name FROM sqlite_schema WHERE type = 'index' AND name NOT LIKE 'sqlite_%'`); err != nil {
		return nil, err
	}
	if err := loadTriggers(ctx, a, tables, `
		SELECT tbl_name, name FROM sqlite_schema WHERE type = 'trigger'`); err != nil {
		return nil, err
	}
	if err := loadVersions(ctx, a, tables); err != nil {
		return nil, err
	}

	return tables, nil
}

func loadIndexes(ctx context.Context, a backend.Adapter, tables map[string]*TableInfo, sql string) error {
	cur, err := a.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer cur.Close()
	for cur.Next(ctx) {
		tableName, _ := cur.ToString(0)
		idxName, _ := cur.ToString(1)
		if t := tables[tableName]; t != nil {
			t.Indexes[idxName] = true
		}
	}
	return cur.Err()
}

func loadTriggers(ctx context.Context, a backend.Adapter, tables map[string]*TableInfo, sql string) error {
	cur, err := a.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer cur.Close()
	for cur.Next(ctx) {
		tableName, _ := cur.ToString(0)
		trigName, _ := cur.ToString(1)
		if t := tables[tableName]; t != nil {
			t.Triggers[trigName] = true
		}
	}
	return cur.Err()
}

func loadVersions(ctx context.Context, a backend.Adapter, tables map[string]*TableInfo) error {
	cur, err := a.Query(ctx, `SELECT name, version FROM __versions`)
	if err != nil {
		// __versions may not exist yet on a brand-new database; every
		// table is then simply treated as unversioned (Version stays -1).
		return nil
	}
	defer cur.Close()
	for cur.Next(ctx) {
		name, _ := cur.ToString(0)
		version, _ := cur.ToInteger(1)
		if t := tables[name]; t != nil {
			t.Version = int(version)
		}
	}
	return cur.Err()
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
