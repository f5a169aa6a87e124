// Package citation implements the citekey side of the pipeline: alias
// expansion, citekey standardization, short-ID derivation, bibliographic
// metadata acquisition, and CSL-JSON / TSV output.
//
// A citekey is a manuscript-level citation identifier, typically itself a
// CURIE (doi:..., pubmed:..., arxiv:...), plus the special url/http/https
// and raw namespaces that never appear in the registry.
package citation

import (
	"crypto/sha256"
	"math/big"
	"strings"

	"github.com/c360studio/semcite/resolver"
)

// Pandoc-xnos filters (fignos, tblnos, eqnos, secnos) use citation syntax
// for cross-references. Those citekeys are not citations.
var pandocXnosPrefixes = []string{"fig:", "tbl:", "eq:", "sec:"}

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// shortIDLength is the length of generated short IDs.
const shortIDLength = 10

// CiteKey is a manuscript citation identifier moving through the
// pipeline: verbatim input, its dealiased form, and the parsed halves.
type CiteKey struct {
	// Input is the citekey exactly as it appeared in the manuscript.
	Input string

	// Dealiased is the citekey after alias expansion (equal to Input
	// when no alias applied).
	Dealiased string

	// Prefix and Accession are the dealiased citekey split at its
	// first colon. Both empty when the citekey has no separator.
	Prefix    string
	Accession string
}

// NewCiteKey builds a citekey, expanding it through the alias map first.
func NewCiteKey(input string, aliases map[string]string) CiteKey {
	dealiased := input
	if target, ok := aliases[input]; ok {
		dealiased = target
	}
	key := CiteKey{Input: input, Dealiased: dealiased}
	if curie, err := resolver.ParseCurie(dealiased); err == nil {
		key.Prefix = curie.Prefix
		key.Accession = curie.Accession
	}
	return key
}

// IsPandocXnos reports whether the citekey belongs to a pandoc-xnos
// cross-reference rather than a citation.
func (k CiteKey) IsPandocXnos() bool {
	lower := strings.ToLower(k.Input)
	for _, prefix := range pandocXnosPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// StandardID returns the canonical form of the citekey: lowercase prefix,
// accession verbatim except for DOIs, whose suffixes are case-insensitive
// and normalize to lowercase.
func (k CiteKey) StandardID() string {
	if k.Prefix == "" {
		return k.Dealiased
	}
	prefix := strings.ToLower(k.Prefix)
	accession := k.Accession
	if prefix == "doi" {
		accession = strings.ToLower(accession)
	}
	return prefix + ":" + accession
}

// ShortID derives a compact, deterministic identifier from the standard
// citekey, used as the CSL item ID so manuscripts keep stable reference
// anchors across metadata refreshes.
func (k CiteKey) ShortID() string {
	return shortenID(k.StandardID())
}

func shortenID(standardID string) string {
	digest := sha256.Sum256([]byte(standardID))
	n := new(big.Int).SetBytes(digest[:])
	base := big.NewInt(int64(len(base62Alphabet)))
	mod := new(big.Int)

	encoded := make([]byte, 0, shortIDLength)
	for len(encoded) < shortIDLength {
		n.DivMod(n, base, mod)
		encoded = append(encoded, base62Alphabet[mod.Int64()])
	}
	return string(encoded)
}
