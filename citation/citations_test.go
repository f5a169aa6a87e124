package citation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semcite/registry"
	"github.com/c360studio/semcite/resolver"
)

func testHandler(t *testing.T) *resolver.Handler {
	t.Helper()
	reg := registry.Registry{
		{Prefix: "doi", Pattern: `^10.\d{4,9}/[-._;()/:a-zA-Z0-9]+$`},
		{Prefix: "clinicaltrials", Pattern: `^NCT\d{8}$`},
		{Prefix: "pubmed", Pattern: `^\d+$`, URIFormat: "https://pubmed.ncbi.nlm.nih.gov/$1"},
	}
	return resolver.New(reg)
}

func TestNewCitationsDeduplicates(t *testing.T) {
	c := NewCitations([]string{
		"doi:10.1038/nbt1156",
		"pubmed:29424689",
		"doi:10.1038/nbt1156",
	}, nil, nil)

	require.Len(t, c.Keys, 2)
	assert.Equal(t, "doi:10.1038/nbt1156", c.Keys[0].Input)
	assert.Equal(t, "pubmed:29424689", c.Keys[1].Input)
}

func TestCitationsFilterPandocXnos(t *testing.T) {
	c := NewCitations([]string{
		"doi:10.1038/nbt1156",
		"fig:workflow",
		"tbl:results",
	}, nil, nil)

	dropped := c.FilterPandocXnos()
	assert.Equal(t, 2, dropped)
	require.Len(t, c.Keys, 1)
	assert.Equal(t, "doi:10.1038/nbt1156", c.Keys[0].Input)
}

func TestCitationsInspect(t *testing.T) {
	h := testHandler(t)
	c := NewCitations([]string{
		"doi:10.1038/nbt1156",
		"clinicaltrials:not-an-nct-id",
		"unknown:whatever",
	}, nil, nil)

	reports := c.Inspect(h)
	require.Len(t, reports, 1, "only the pattern mismatch should report; unknown prefixes stay silent")
	assert.Contains(t, reports[0], "clinicaltrials")
}

func TestCitationsResolveURLsContinuesPastFailures(t *testing.T) {
	h := testHandler(t)
	c := NewCitations([]string{
		"pubmed:29424689",
		"unknown:whatever",
		"doi:10.1038/nbt1156",
	}, nil, nil)

	urls := c.ResolveURLs(h)
	assert.Len(t, urls, 2)
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/29424689", urls["pubmed:29424689"])
	assert.Equal(t, "https://doi.org/10.1038/nbt1156", urls["doi:10.1038/nbt1156"])
}

func TestCitationsInputToCSLID(t *testing.T) {
	aliases := map[string]string{"tag": "doi:10.1038/nbt1156"}
	c := NewCitations([]string{"tag", "pubmed:29424689"}, aliases, nil)

	mapping := c.InputToCSLID()
	require.Len(t, mapping, 2)
	// The alias maps to the same short ID as the citekey it expands to.
	assert.Equal(t, NewCiteKey("doi:10.1038/nbt1156", nil).ShortID(), mapping["tag"])
}

func TestWriteCitekeysTSV(t *testing.T) {
	c := NewCitations([]string{"DOI:10.1038/NBT1156"}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, c.WriteCitekeysTSV(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "input_id\tdealiased_id\tstandard_id\tshort_id", lines[0])

	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 4)
	assert.Equal(t, "DOI:10.1038/NBT1156", fields[0])
	assert.Equal(t, "doi:10.1038/nbt1156", fields[2])
	assert.Len(t, fields[3], 10)
}

func TestWriteAndReadCSLJSON(t *testing.T) {
	items := []CSLItem{
		{"id": "abc123", "type": "article-journal", "title": "Example"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSLJSON(&buf, items))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	parsed, err := ReadCSLJSON(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "abc123", parsed[0].ID())
	assert.Equal(t, "Example", parsed[0].Title())
}

func TestWriteCSLJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSLJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
