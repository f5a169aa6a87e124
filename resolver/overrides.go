package resolver

import (
	"strings"

	"github.com/c360studio/semcite/registry"
)

// overrideFunc computes a URL for one prefix, bypassing the generic
// registry template.
type overrideFunc func(accession string, res *registry.Resource) string

// overrides is the static prefix-keyed dispatch table consulted before a
// record's uri_format. Keys are canonical lowercase prefixes. Adding a
// special case is a table entry, not a new branch in Resolve.
var overrides = map[string]overrideFunc{
	// Accession case is preserved verbatim; DOI suffixes are
	// case-insensitive upstream but round-trip better untouched.
	"doi": func(accession string, _ *registry.Resource) string {
		return "https://doi.org/" + accession
	},
	"arxiv": func(accession string, _ *registry.Resource) string {
		return "https://arxiv.org/abs/" + accession
	},
	"taxonomy": func(accession string, _ *registry.Resource) string {
		return "https://www.ncbi.nlm.nih.gov/Taxonomy/Browser/wwwtax.cgi?mode=Info&id=" + accession
	},
	// The search endpoint wants the CHEBI: namespace inside the query
	// value, uppercase, regardless of how the caller cased the prefix.
	"chebi": func(accession string, _ *registry.Resource) string {
		return "https://www.ebi.ac.uk/chebi/searchId.do?chebiId=CHEBI:" + accession
	},
	"clinicaltrials": func(accession string, _ *registry.Resource) string {
		return "https://clinicaltrials.gov/ct2/show/" + accession
	},
	// Upstream declares the prefix as gramene.growthstage but the
	// resolving service only understands the GRO namespace.
	// https://github.com/identifiers-org/identifiers-org.github.io/issues/99
	"gramene.growthstage": func(accession string, _ *registry.Resource) string {
		return "http://www.gramene.org/db/ontology/search?id=GRO:" + accession
	},
}

// overrideURL resolves a URL through the override table. Prefix-keyed
// entries are consulted first, then the record's OLS flag. Reports
// not-applicable (false) when neither applies, in which case resolution
// falls through to the generic template.
func overrideURL(res *registry.Resource, accession string) (string, bool) {
	if fn, ok := overrides[strings.ToLower(res.Prefix)]; ok {
		return fn(accession, res), true
	}
	if res.OLS {
		return olsURL(res, accession), true
	}
	return "", false
}

// olsURL builds an Ontology Lookup Service terms URL. The path segment
// uses the lowercase prefix; the obo_id query value uses the uppercase
// canonical form (e.g. doid:11337 -> .../ontologies/doid/terms?obo_id=DOID:11337).
func olsURL(res *registry.Resource, accession string) string {
	lower := strings.ToLower(res.Prefix)
	upper := strings.ToUpper(res.Prefix)
	return "https://www.ebi.ac.uk/ols/ontologies/" + lower + "/terms?obo_id=" + upper + ":" + accession
}
