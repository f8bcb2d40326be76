package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLookup(t *testing.T) {
	for _, name := range []string{"postgres", "sqlite", "mysql", "tidb"} {
		d, err := Lookup(name)
		require.NoError(t, err)
		require.NotNil(t, d)
	}

	_, err := Lookup("oracle")
	require.Error(t, err)
}

func TestPlaceholderStyles(t *testing.T) {
	pg, _ := Lookup("postgres")
	assert.Equal(t, "$1", pg.Placeholder(1))
	assert.Equal(t, "$2", pg.Placeholder(2))

	sqlite, _ := Lookup("sqlite")
	assert.Equal(t, "?", sqlite.Placeholder(1))
	assert.Equal(t, "?", sqlite.Placeholder(2))

	mysql, _ := Lookup("mysql")
	assert.Equal(t, "?", mysql.Placeholder(1))
}

func TestQuoteIdentifierStyles(t *testing.T) {
	pg, _ := Lookup("postgres")
	assert.Equal(t, `"users"`, pg.QuoteIdentifier("users"))

	mysql, _ := Lookup("mysql")
	assert.Equal(t, "`users`", mysql.QuoteIdentifier("users"))

	sqlite, _ := Lookup("sqlite")
	assert.Equal(t, `"users"`, sqlite.QuoteIdentifier("users"))
}

func TestRenderValueParity(t *testing.T) {
	for _, name := range Names() {
		d, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, "NULL", d.RenderValue(nil))
		assert.Equal(t, "'a'", d.RenderValue("a"))
	}
}

func TestSupportsVector(t *testing.T) {
	pg, _ := Lookup("postgres")
	assert.True(t, pg.SupportsVector())

	sqlite, _ := Lookup("sqlite")
	assert.False(t, sqlite.SupportsVector())

	mysql, _ := Lookup("mysql")
	assert.False(t, mysql.SupportsVector())

	tidb, _ := Lookup("tidb")
	assert.True(t, tidb.SupportsVector())
}
