package registry

import "strings"

// Index maps prefixes to their resource records.
//
// The primary key is each record's literal prefix field (lowercase by
// convention); synonyms are indexed under their lowercase spelling.
// Lookup hands out defensive copies: callers may freely overwrite fields
// on a returned record (e.g. for tests or local adjustments) without the
// mutation leaking into the shared index.
type Index struct {
	byPrefix map[string]Resource
}

// BuildIndex constructs a prefix index from a loaded registry.
func BuildIndex(reg Registry) *Index {
	byPrefix := make(map[string]Resource, len(reg))
	for _, res := range reg {
		byPrefix[res.Prefix] = res
	}
	// Synonyms never shadow a literal prefix.
	for _, res := range reg {
		for _, syn := range res.Synonyms {
			key := strings.ToLower(syn)
			if _, taken := byPrefix[key]; !taken {
				byPrefix[key] = res
			}
		}
	}
	return &Index{byPrefix: byPrefix}
}

// Lookup finds the record for a caller-supplied prefix. It first tries an
// exact match on the literal prefix, then a lowercase-normalized match,
// because callers mix canonical lowercase prefixes with arbitrary casing
// (DOI, doi, ChEBI). No fuzzy matching: unknown prefixes are a hard miss.
func (ix *Index) Lookup(prefix string) (*Resource, bool) {
	if res, ok := ix.byPrefix[prefix]; ok {
		out := res.clone()
		return &out, true
	}
	if res, ok := ix.byPrefix[strings.ToLower(prefix)]; ok {
		out := res.clone()
		return &out, true
	}
	return nil, false
}

// Len returns the number of indexed prefixes, synonyms included.
func (ix *Index) Len() int {
	return len(ix.byPrefix)
}

// Prefixes returns all indexed prefix keys, in no particular order.
func (ix *Index) Prefixes() []string {
	keys := make([]string, 0, len(ix.byPrefix))
	for k := range ix.byPrefix {
		keys = append(keys, k)
	}
	return keys
}
