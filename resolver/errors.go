package resolver

import "errors"

// Resolution errors. All failures returned by Resolve wrap one of these
// sentinels, so callers can classify per-citekey failures with errors.Is
// and keep processing the rest of a batch.
var (
	// ErrMalformedCurie is returned when the input has no prefix:accession
	// separator or either half of the split is empty.
	ErrMalformedCurie = errors.New("malformed curie")

	// ErrUnknownPrefix is returned when the prefix is absent from the
	// index under both exact and lowercase lookup.
	ErrUnknownPrefix = errors.New("unknown prefix")

	// ErrUnresolvable is returned when the prefix is known but neither an
	// override rule nor a usable URL template exists for it.
	ErrUnresolvable = errors.New("no url construction rule")
)
