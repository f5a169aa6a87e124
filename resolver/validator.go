package resolver

import (
	"fmt"

	"github.com/c360studio/semcite/registry"
)

// CheckPattern tests an accession against its record's declared pattern.
// The match covers the entire accession string, never a substring.
//
// The return value is a human-readable diagnostic, or empty when the
// record declares no pattern or the accession conforms. Diagnostics are
// meant for logging and registry self-tests; resolution never depends on
// them. Registry patterns come from an external, occasionally buggy
// dataset, so treating a mismatch as fatal would make the resolver only
// as reliable as someone else's regular expressions.
func CheckPattern(res *registry.Resource, accession string) string {
	if res == nil || res.Pattern == "" {
		return ""
	}
	re, err := res.PatternRegexp()
	if err != nil {
		return fmt.Sprintf("prefix %s declares an invalid pattern %s: %v", res.Prefix, res.Pattern, err)
	}
	if !re.MatchString(accession) {
		return fmt.Sprintf("accession %q for prefix %s does not match pattern %s", accession, res.Prefix, res.Pattern)
	}
	return ""
}
