package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureIndex(t *testing.T) *Index {
	t.Helper()
	reg, err := ParseRegistry(loadFixture(t), true)
	require.NoError(t, err)
	return BuildIndex(reg)
}

func TestIndexLookup(t *testing.T) {
	ix := fixtureIndex(t)

	t.Run("contains doid", func(t *testing.T) {
		res, ok := ix.Lookup("doid")
		require.True(t, ok)
		assert.Equal(t, "doid", res.Prefix)
		assert.True(t, res.OLS)
	})

	t.Run("exact match first", func(t *testing.T) {
		res, ok := ix.Lookup("chebi")
		require.True(t, ok)
		assert.Equal(t, "ChEBI", res.PreferredPrefix)
	})

	t.Run("lowercase fallback", func(t *testing.T) {
		for _, prefix := range []string{"DOI", "ChEBI", "arXiv", "DOID"} {
			res, ok := ix.Lookup(prefix)
			require.True(t, ok, "lookup %s", prefix)
			assert.NotEmpty(t, res.Prefix)
		}
	})

	t.Run("synonym lookup", func(t *testing.T) {
		res, ok := ix.Lookup("PMID")
		require.True(t, ok)
		assert.Equal(t, "pubmed", res.Prefix)
	})

	t.Run("unknown prefix is a hard miss", func(t *testing.T) {
		_, ok := ix.Lookup("this.is.not")
		assert.False(t, ok)
	})
}

func TestIndexLookupReturnsCopy(t *testing.T) {
	ix := fixtureIndex(t)

	res, ok := ix.Lookup("doid")
	require.True(t, ok)

	// Callers may overwrite fields on the returned record without the
	// mutation reaching the shared index.
	res.PreferredPrefix = "MUTATED"
	res.Synonyms = append(res.Synonyms, "mutated")

	again, ok := ix.Lookup("doid")
	require.True(t, ok)
	assert.Equal(t, "DOID", again.PreferredPrefix)
	assert.NotContains(t, again.Synonyms, "mutated")
}

func TestIndexSynonymDoesNotShadowPrefix(t *testing.T) {
	reg := Registry{
		{Prefix: "pmc", Name: "PubMed Central"},
		{Prefix: "other", Synonyms: []string{"pmc"}},
	}
	ix := BuildIndex(reg)

	res, ok := ix.Lookup("pmc")
	require.True(t, ok)
	assert.Equal(t, "PubMed Central", res.Name)
}

func TestIndexLen(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Greater(t, ix.Len(), 9, "synonyms add extra keys")
	assert.Contains(t, ix.Prefixes(), "doi")
}
