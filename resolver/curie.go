// Package resolver turns compact identifiers (CURIEs, prefix:accession)
// into dereferenceable URLs using a loaded registry index.
//
// URL construction consults a static override table before the generic
// registry template, because several well-known registries use URL shapes
// that plain placeholder substitution cannot express. Pattern validation
// is advisory: a registry pattern that disagrees with an accession is
// reported, never fatal, so one buggy upstream regex cannot block
// resolution of everything else.
package resolver

import (
	"fmt"
	"strings"
)

// Curie is a parsed compact identifier. Both halves are verbatim from
// the caller's input, split at the first colon.
type Curie struct {
	Prefix    string
	Accession string
}

// ParseCurie splits a compact identifier at its first colon. The parse is
// strict: a missing separator or an empty half is ErrMalformedCurie.
func ParseCurie(input string) (Curie, error) {
	sep := strings.Index(input, ":")
	if sep < 0 {
		return Curie{}, fmt.Errorf("%w: %q has no prefix:accession separator", ErrMalformedCurie, input)
	}
	curie := Curie{
		Prefix:    input[:sep],
		Accession: input[sep+1:],
	}
	if curie.Prefix == "" {
		return Curie{}, fmt.Errorf("%w: %q has an empty prefix", ErrMalformedCurie, input)
	}
	if curie.Accession == "" {
		return Curie{}, fmt.Errorf("%w: %q has an empty accession", ErrMalformedCurie, input)
	}
	return curie, nil
}

// String reassembles the compact identifier.
func (c Curie) String() string {
	return c.Prefix + ":" + c.Accession
}
