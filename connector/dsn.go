package connector

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DSNBuilder assembles a URL-form DSN piece by piece, escaping each
// component; Params.DSN drives it, and applications composing their own
// connection strings can use it directly.
type DSNBuilder struct {
	scheme   string
	username string
	password string
	host     string
	port     int
	database string
	params   map[string]string
}

func NewDSNBuilder(scheme string) *DSNBuilder {
	return &DSNBuilder{scheme: scheme, params: make(map[string]string)}
}

func (b *DSNBuilder) Auth(username, password string) *DSNBuilder {
	b.username = username
	b.password = password
	return b
}

func (b *DSNBuilder) Host(host string, port int) *DSNBuilder {
	b.host = host
	b.port = port
	return b
}

func (b *DSNBuilder) Database(name string) *DSNBuilder {
	b.database = name
	return b
}

// Param adds one query parameter; empty values are dropped.
func (b *DSNBuilder) Param(key, value string) *DSNBuilder {
	if value != "" {
		b.params[key] = value
	}
	return b
}

// Validate checks the components that must be present before Build.
func (b *DSNBuilder) Validate() error {
	if b.host == "" {
		return fmt.Errorf("host is required")
	}
	if b.port <= 0 || b.port > 65535 {
		return fmt.Errorf("invalid port: %d", b.port)
	}
	return nil
}

func (b *DSNBuilder) Build() string {
	var dsn strings.Builder

	dsn.WriteString(b.scheme)
	dsn.WriteString("://")

	if b.username != "" {
		dsn.WriteString(url.QueryEscape(b.username))
		if b.password != "" {
			dsn.WriteString(":")
			dsn.WriteString(url.QueryEscape(b.password))
		}
		dsn.WriteString("@")
	}

	dsn.WriteString(b.host)
	if b.port > 0 {
		dsn.WriteString(":")
		dsn.WriteString(strconv.Itoa(b.port))
	}

	if b.database != "" {
		dsn.WriteString("/")
		dsn.WriteString(url.PathEscape(b.database))
	}

	if len(b.params) > 0 {
		dsn.WriteString("?")
		first := true
		for _, key := range sortedKeys(b.params) {
			if !first {
				dsn.WriteString("&")
			}
			dsn.WriteString(url.QueryEscape(key))
			dsn.WriteString("=")
			dsn.WriteString(url.QueryEscape(b.params[key]))
			first = false
		}
	}

	return dsn.String()
}
