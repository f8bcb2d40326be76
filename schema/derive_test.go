package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type derivedArticle struct {
	Title    string    `db:"title;not_null;max_length:200"`
	Slug     string    `db:"slug;unique"`
	AuthorID int64     `db:"author;fk:Author"`
	Tags     []string  `db:"tags"`
	Views    int       `db:"views"`
	Body     []byte    `db:"body"`
	Updated  time.Time `db:"updated;auto_now"`
	Token    string    `db:"token;generator:uuid"`
	Internal string    `db:"-"`
	hidden   string
}

func TestDeriveSchemeFromTaggedStruct(t *testing.T) {
	_ = derivedArticle{hidden: ""}

	s, err := DeriveScheme(derivedArticle{})
	require.NoError(t, err)
	assert.Equal(t, "derivedArticle", s.Name)

	title := s.FieldMap["title"]
	require.NotNil(t, title)
	assert.Equal(t, KindText, title.Kind)
	assert.True(t, title.Required)
	require.NotNil(t, title.MaxLength)
	assert.Equal(t, 200, *title.MaxLength)

	assert.True(t, s.FieldMap["slug"].Unique)

	author := s.FieldMap["author"]
	require.NotNil(t, author)
	assert.Equal(t, KindObject, author.Kind)
	assert.Equal(t, "Author", author.Target)

	tags := s.FieldMap["tags"]
	require.NotNil(t, tags)
	assert.Equal(t, KindArray, tags.Kind)
	assert.Equal(t, KindText, tags.Element)

	assert.Equal(t, KindInteger, s.FieldMap["views"].Kind)
	assert.Equal(t, KindBytes, s.FieldMap["body"].Kind)
	assert.True(t, s.FieldMap["updated"].AutoMTime)

	token := s.FieldMap["token"]
	require.NotNil(t, token)
	require.NotNil(t, token.Default)
	v, err := token.Default()
	require.NoError(t, err)
	assert.NotEmpty(t, v)

	assert.Nil(t, s.FieldMap["internal"], "db:\"-\" field must be skipped")
	assert.Nil(t, s.FieldMap["hidden"], "unexported field must be skipped")
}

func TestDeriveSchemeRejectsNonStruct(t *testing.T) {
	_, err := DeriveScheme(42)
	require.Error(t, err)
}
