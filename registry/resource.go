// Package registry loads and indexes the namespace registry that backs
// compact-identifier (CURIE) resolution.
//
// The registry is an ordered collection of resource records, one per
// namespace prefix. It is fetched once per process, cached, and treated
// as immutable afterward. Lookups go through a prefix index built from
// the loaded registry.
package registry

import (
	"fmt"
	"regexp"
)

// Resource describes a single namespace prefix: how its accessions look
// and how to turn an accession into a URL.
type Resource struct {
	// Prefix is the registry-unique namespace identifier,
	// lowercase by convention (e.g. "doi", "chebi").
	Prefix string `json:"prefix" yaml:"prefix"`

	// Name is a human-readable resource name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Pattern is a regular expression matched against the entire
	// accession string. Optional.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Example is an accession expected to satisfy Pattern. Optional.
	Example string `json:"example,omitempty" yaml:"example,omitempty"`

	// URIFormat is a URL template with a single $1 accession
	// placeholder. Optional.
	URIFormat string `json:"uri_format,omitempty" yaml:"uri_format,omitempty"`

	// PreferredPrefix is the display-case form of Prefix (e.g. "ChEBI").
	PreferredPrefix string `json:"preferred_prefix,omitempty" yaml:"preferred_prefix,omitempty"`

	// Synonyms lists alternate prefix spellings that map back to this record.
	Synonyms []string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`

	// OLS marks the prefix as an Ontology Lookup Service backed ontology,
	// which uses the OLS URL convention instead of URIFormat.
	OLS bool `json:"ols,omitempty" yaml:"ols,omitempty"`

	// compiled holds the full-string pattern, populated by
	// Store.Load when pattern compilation is requested.
	compiled *regexp.Regexp
}

// PatternRegexp returns the compiled full-string form of Pattern.
// The match is anchored to the whole accession, regardless of whether the
// declared pattern carries its own anchors. When the registry was loaded
// with pattern compilation, the cached regexp is returned; otherwise the
// pattern is compiled on the fly without caching, so concurrent callers
// never mutate a shared record.
func (r *Resource) PatternRegexp() (*regexp.Regexp, error) {
	if r.compiled != nil {
		return r.compiled, nil
	}
	return compileFullMatch(r.Pattern)
}

// compileFullMatch wraps a pattern so it only matches the entire input.
func compileFullMatch(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re, nil
}

// clone returns a deep copy of the record. The compiled regexp is shared:
// it is immutable and safe for concurrent use.
func (r Resource) clone() Resource {
	out := r
	if r.Synonyms != nil {
		out.Synonyms = append([]string(nil), r.Synonyms...)
	}
	return out
}

// Registry is the ordered collection of resource records. It is owned by
// the Store that produced it and must be treated as read-only by callers.
type Registry []Resource
