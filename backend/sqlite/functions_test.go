package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	assert.Equal(t, []string{"the", "quick", "brown", "fox"}, tokenize("The quick, brown FOX!"))
	assert.Empty(t, tokenize("---"))
	assert.Equal(t, []string{"a1", "b2"}, tokenize("a1/b2"))
}

func TestTSQueryValid(t *testing.T) {
	assert.True(t, spTSQueryValid("quick fox"))
	assert.False(t, spTSQueryValid("  ...  "))
}

func TestTSRankOverlap(t *testing.T) {
	words := spTSUpdate("the quick brown fox")

	assert.Equal(t, 1.0, spTSRank(words, "quick fox"))
	assert.Equal(t, 0.5, spTSRank(words, "quick purple"))
	assert.Zero(t, spTSRank(words, "purple"))
	assert.Zero(t, spTSRank(words, ""))
}

func TestTSUpdateJoinsTokens(t *testing.T) {
	assert.Equal(t, "the quick brown fox", spTSUpdate("The quick, brown FOX!"))
}

func TestInternalNextOIDIsMonotonic(t *testing.T) {
	a := internalNextOID()
	b := internalNextOID()
	assert.Greater(t, b, a)
}
