package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arion-db/arion/cache"
	"github.com/arion-db/arion/dialect"
	"github.com/arion-db/arion/schema"
	"github.com/arion-db/arion/visitor"
)

func userScheme() *schema.Scheme {
	s := schema.NewScheme("User")
	s.AddField(schema.Scalar("name", schema.KindText))
	s.AddField(schema.Scalar("email", schema.KindText).WithUnique())
	s.AddField(schema.Scalar("age", schema.KindInteger))
	s.AddField(schema.Scalar("bio", schema.KindText).WithForceExclude())
	return s
}

func TestCompileSelectBasic(t *testing.T) {
	s := userScheme()
	q := New(s).Where(Eq("name", "ada"))

	stmt, warnings, err := CompileSelect(q)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	v := visitor.NewSQLVisitor(dialect.Postgres{}, cache.NewQueryCache())
	sql, args, err := v.Build(stmt)
	require.NoError(t, err)
	assert.Contains(t, sql, `SELECT`)
	assert.Contains(t, sql, `"users"`)
	assert.Contains(t, sql, `WHERE`)
	assert.Equal(t, []any{"ada"}, args)
}

func TestCompileSelectDropsIncompatibleComparator(t *testing.T) {
	s := userScheme()
	q := New(s).Where(Gt("name", "z")) // LessThan/GreaterThan not valid on Text

	_, warnings, err := CompileSelect(q)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "name", warnings[0].Field)
}

func TestCompileSelectDropsUnknownField(t *testing.T) {
	s := userScheme()
	q := New(s).Where(Eq("nickname", "ace"))

	_, warnings, err := CompileSelect(q)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "unknown field", warnings[0].Reason)
}

func TestCompileSelectForceExcludeRespected(t *testing.T) {
	s := userScheme()

	r := Resolve(s, nil, nil)
	for _, f := range r.Columns {
		assert.NotEqual(t, "bio", f.Name)
	}

	r2 := Resolve(s, []string{"bio"}, nil)
	found := false
	for _, f := range r2.Columns {
		if f.Name == "bio" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompileSelectOrderAndLimit(t *testing.T) {
	s := userScheme()
	q := New(s).OrderBy("age", true).WithLimit(10).WithOffset(5)

	stmt, _, err := CompileSelect(q)
	require.NoError(t, err)

	v := visitor.NewSQLVisitor(dialect.Postgres{}, cache.NewQueryCache())
	sql, _, err := v.Build(stmt)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY")
	assert.Contains(t, sql, "DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 5")
}

func TestSoftLimitRewriteForNonUniqueOrder(t *testing.T) {
	s := userScheme()
	q := New(s).OrderBy("age", false).WithSoftLimit(20)
	assert.True(t, q.needsSoftLimitRewrite())
}

func TestSoftLimitNotNeededForUniqueOrder(t *testing.T) {
	s := userScheme()
	q := New(s).OrderBy("email", false).WithSoftLimit(20)
	assert.False(t, q.needsSoftLimitRewrite())
}

func TestBuildSoftLimitProducesCTE(t *testing.T) {
	s := userScheme()
	q := New(s).Where(Eq("name", "ada")).OrderBy("age", true).WithSoftLimit(20)

	v := visitor.NewSQLVisitor(dialect.Postgres{}, cache.NewQueryCache())
	sql, args, warnings, err := BuildSoftLimit(q, v, dialect.Postgres{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Contains(t, sql, "WITH u AS (")
	assert.Contains(t, sql, "IN (SELECT")
	assert.NotEmpty(t, args)
}

func TestBetweenAndInTerms(t *testing.T) {
	s := userScheme()
	q := New(s).Where(BetweenValues("age", 18, 30), InValues("name", []any{"ada", "lin"}))

	stmt, warnings, err := CompileSelect(q)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	v := visitor.NewSQLVisitor(dialect.Postgres{}, cache.NewQueryCache())
	sql, args, err := v.Build(stmt)
	require.NoError(t, err)
	assert.Contains(t, sql, "BETWEEN")
	assert.Contains(t, sql, "IN (")
	assert.Equal(t, []any{18, 30, "ada", "lin"}, args)
}

func TestIsNullTerm(t *testing.T) {
	s := userScheme()
	q := New(s).Where(Null("bio"))

	stmt, warnings, err := CompileSelect(q)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	v := visitor.NewSQLVisitor(dialect.Postgres{}, cache.NewQueryCache())
	sql, _, err := v.Build(stmt)
	require.NoError(t, err)
	assert.Contains(t, sql, "IS NULL")
}
