package migrate

// housekeepingPostgres is the DDL for the housekeeping tables, whose
// layout must match exactly for interop, rendered for PostgreSQL.
var housekeepingPostgres = []string{
	`CREATE TABLE IF NOT EXISTS __objects (control INT PRIMARY KEY, __oid BIGINT NOT NULL)`,
	`INSERT INTO __objects (control, __oid) VALUES (0, 0) ON CONFLICT DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS __versions (name TEXT PRIMARY KEY, version INT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS __removed (__oid BIGINT PRIMARY KEY)`,
	`CREATE TABLE IF NOT EXISTS __sessions (name BYTEA PRIMARY KEY, mtime BIGINT NOT NULL, maxage BIGINT NOT NULL, data BYTEA)`,
	`CREATE TABLE IF NOT EXISTS __broadcasts (id BIGSERIAL PRIMARY KEY, date BIGINT NOT NULL, msg BYTEA)`,
	`CREATE TABLE IF NOT EXISTS __login (id BIGSERIAL PRIMARY KEY, "user" BIGINT, name TEXT, password BYTEA, date BIGINT, success BOOLEAN, addr TEXT, host TEXT, path TEXT)`,
}

// housekeepingSQLite mirrors housekeepingPostgres for SQLite, plus the
// SQLite-only __words interning table (also seeded directly by
// backend/sqlite.Adapter.ensureHousekeeping at connection-open time, so
// migrate re-creates it idempotently rather than assuming the adapter
// already has).
var housekeepingSQLite = []string{
	`CREATE TABLE IF NOT EXISTS __objects (control INTEGER PRIMARY KEY, __oid INTEGER NOT NULL)`,
	`INSERT OR IGNORE INTO __objects (control, __oid) VALUES (0, 0)`,
	`CREATE TABLE IF NOT EXISTS __versions (name TEXT PRIMARY KEY, version INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS __removed (__oid INTEGER PRIMARY KEY)`,
	`CREATE TABLE IF NOT EXISTS __sessions (name BLOB PRIMARY KEY, mtime INTEGER NOT NULL, maxage INTEGER NOT NULL, data BLOB)`,
	`CREATE TABLE IF NOT EXISTS __broadcasts (id INTEGER PRIMARY KEY AUTOINCREMENT, date INTEGER NOT NULL, msg BLOB)`,
	`CREATE TABLE IF NOT EXISTS __login (id INTEGER PRIMARY KEY AUTOINCREMENT, user INTEGER, name TEXT, password BLOB, date INTEGER, success INTEGER, addr TEXT, host TEXT, path TEXT)`,
	`CREATE TABLE IF NOT EXISTS __words (id INTEGER NOT NULL, word TEXT NOT NULL)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS __words_id_idx ON __words (id)`,
}

func housekeepingDDL(dialectName string) []string {
	if dialectName == "sqlite" {
		return housekeepingSQLite
	}
	return housekeepingPostgres
}
