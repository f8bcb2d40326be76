package dialect

import "fmt"

// Registry maps a driver name to the Dialect that renders statements for
// it. All four dialects stay registered even though only
// postgres/sqlite back a concrete backend.Adapter in this module — the
// other two are carried for parity testing.
var registry = map[string]func() Dialect{
	"postgres": NewPostgresDialect,
	"sqlite":   NewSQLiteDialect,
	"mysql":    NewMySQLDialect,
	"tidb":     NewTiDBDialect,
}

// Lookup returns the Dialect registered under name.
func Lookup(name string) (Dialect, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
	return ctor(), nil
}

// Names returns every registered dialect name.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
