// Package connector turns the string-map connection parameters of the
// external interface (driver, dbname, user, password, host, port,
// nmin/nmax/nkeep/exptime/persistent, plus backend passthrough keys) into
// the DSNs the backend drivers open, and carries the retry policy used
// while a database is coming up.
package connector

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params is the caller-facing connection description. Unknown keys are
// passed through to the backend when it recognizes them and dropped
// otherwise.
type Params map[string]string

// Common parameter keys.
const (
	KeyDriver     = "driver"
	KeyDBName     = "dbname"
	KeyUser       = "user"
	KeyPassword   = "password"
	KeyHost       = "host"
	KeyPort       = "port"
	KeyNMin       = "nmin"
	KeyNMax       = "nmax"
	KeyNKeep      = "nkeep"
	KeyExpTime    = "exptime"
	KeyPersistent = "persistent"
)

// pgPassthrough is the libpq-recognized parameter set forwarded verbatim
// into a PostgreSQL DSN.
var pgPassthrough = map[string]bool{
	"hostaddr": true, "passfile": true, "channel_binding": true,
	"connect_timeout": true, "client_encoding": true, "options": true,
	"application_name": true, "fallback_application_name": true,
	"keepalives": true, "keepalives_idle": true, "keepalives_interval": true,
	"keepalives_count": true, "tcp_user_timeout": true, "replication": true,
	"gssencmode": true, "sslmode": true, "requiressl": true,
	"sslcompression": true, "sslcert": true, "sslkey": true,
	"sslpassword": true, "sslrootcert": true, "sslcrl": true,
	"sslsni": true, "requirepeer": true, "krbsrvname": true,
	"gsslib": true, "service": true, "target_session_attrs": true,
}

// sqlitePassthrough is the query-parameter set the SQLite driver honors.
var sqlitePassthrough = map[string]bool{
	"mode": true, "cache": true, "threading": true, "journal": true,
}

func (p Params) get(key, fallback string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (p Params) getInt(key string, fallback int) int {
	v, ok := p[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// Driver returns the driver name, defaulting to postgres.
func (p Params) Driver() string { return p.get(KeyDriver, "postgres") }

// DSN renders the parameter map into the URL-form DSN backend.Open
// dispatches on. Pool sizing keys (nmin/nmax/exptime) are translated into
// pgxpool's own pool_* query parameters on the PostgreSQL side; SQLite has
// a single connection and ignores them.
func (p Params) DSN() (string, error) {
	switch p.Driver() {
	case "postgres":
		return p.postgresDSN(), nil
	case "sqlite":
		return p.sqliteDSN(), nil
	default:
		return "", fmt.Errorf("connector: unsupported driver %q", p.Driver())
	}
}

func (p Params) postgresDSN() string {
	b := NewDSNBuilder("postgres").
		Auth(p.get(KeyUser, ""), p.get(KeyPassword, "")).
		Host(p.get(KeyHost, "localhost"), p.getInt(KeyPort, 5432)).
		Database(p.get(KeyDBName, ""))

	for _, k := range sortedKeys(p) {
		if pgPassthrough[k] {
			b.Param(k, p[k])
		}
	}

	if n := p.getInt(KeyNMax, 0); n > 0 {
		b.Param("pool_max_conns", strconv.Itoa(n))
	}
	if n := p.getInt(KeyNMin, 0); n > 0 {
		b.Param("pool_min_conns", strconv.Itoa(n))
	}
	if n := p.getInt(KeyExpTime, 0); n > 0 {
		b.Param("pool_max_conn_idle_time", strconv.Itoa(n)+"s")
	}
	return b.Build()
}

func (p Params) sqliteDSN() string {
	var sb strings.Builder
	sb.WriteString("sqlite://")
	sb.WriteString(p.get(KeyDBName, ":memory:"))

	sep := "?"
	for _, k := range sortedKeys(p) {
		if sqlitePassthrough[k] {
			sb.WriteString(sep)
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(p[k])
			sep = "&"
		}
	}
	return sb.String()
}

// Pool extracts the pool sizing settings, with the defaults an embedded
// deployment wants: a handful of connections, recycled after an hour idle.
func (p Params) Pool() PoolConfig {
	return PoolConfig{
		MinConns:    p.getInt(KeyNMin, 0),
		MaxConns:    p.getInt(KeyNMax, 10),
		KeepConns:   p.getInt(KeyNKeep, 2),
		IdleSeconds: p.getInt(KeyExpTime, 3600),
		Persistent:  p.get(KeyPersistent, "") == "1" || p.get(KeyPersistent, "") == "true",
	}
}

func sortedKeys(p Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
